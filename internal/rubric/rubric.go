// internal/rubric/rubric.go
package rubric

import "fmt"

// Rubric is the fixed weighted scoring schema applied to every
// application. It is versioned configuration data, not instance data:
// category weights sum to 100 and each category's sub-criterion weights
// sum to the category weight.
type Rubric struct {
	Version    string     `json:"version"`
	Categories []Category `json:"categories"`
}

type Category struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Weight   float64     `json:"weight"`
	Criteria []Criterion `json:"criteria"`
}

type Criterion struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// Default returns the rubric used for the market's jury sessions:
// four categories weighted 45/25/15/15.
func Default() *Rubric {
	return &Rubric{
		Version: "2024.1",
		Categories: []Category{
			{
				ID:     "produit",
				Label:  "Produit et savoir-faire",
				Weight: 45,
				Criteria: []Criterion{
					{ID: "origine_matieres_premieres", Label: "Origine des matières premières", Weight: 15},
					{ID: "transformation_locale", Label: "Transformation locale", Weight: 15},
					{ID: "certification_qualite", Label: "Certification qualité", Weight: 10},
					{ID: "originalite", Label: "Originalité du produit", Weight: 5},
				},
			},
			{
				ID:     "economie",
				Label:  "Impact économique local",
				Weight: 25,
				Criteria: []Criterion{
					{ID: "emplois_crees", Label: "Emplois créés", Weight: 15},
					{ID: "approvisionnement_local", Label: "Approvisionnement local", Weight: 10},
				},
			},
			{
				ID:     "environnement",
				Label:  "Démarche environnementale",
				Weight: 15,
				Criteria: []Criterion{
					{ID: "emballages", Label: "Emballages et déchets", Weight: 8},
					{ID: "circuit_court", Label: "Circuit court", Weight: 7},
				},
			},
			{
				ID:     "dossier",
				Label:  "Qualité du dossier",
				Weight: 15,
				Criteria: []Criterion{
					{ID: "completude", Label: "Complétude du dossier", Weight: 8},
					{ID: "adequation_marche", Label: "Adéquation au marché", Weight: 7},
				},
			},
		},
	}
}

// Validate checks the weight invariants: category weights sum to 100
// and sub-criterion weights sum to their category's weight.
func (r *Rubric) Validate() error {
	total := 0.0
	for _, cat := range r.Categories {
		if len(cat.Criteria) == 0 {
			return fmt.Errorf("category %s has no criteria", cat.ID)
		}
		catTotal := 0.0
		for _, c := range cat.Criteria {
			if c.Weight <= 0 {
				return fmt.Errorf("criterion %s has non-positive weight", c.ID)
			}
			catTotal += c.Weight
		}
		if catTotal != cat.Weight {
			return fmt.Errorf("category %s criteria weights sum to %.1f, want %.1f", cat.ID, catTotal, cat.Weight)
		}
		total += cat.Weight
	}
	if total != 100 {
		return fmt.Errorf("category weights sum to %.1f, want 100", total)
	}
	return nil
}

// CriterionIDs returns the closed set of rateable criterion ids.
func (r *Rubric) CriterionIDs() []string {
	var ids []string
	for _, cat := range r.Categories {
		for _, c := range cat.Criteria {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Category returns the category containing the given criterion id, or
// nil when the id is unknown.
func (r *Rubric) CategoryOf(criterionID string) *Category {
	for i := range r.Categories {
		for _, c := range r.Categories[i].Criteria {
			if c.ID == criterionID {
				return &r.Categories[i]
			}
		}
	}
	return nil
}
