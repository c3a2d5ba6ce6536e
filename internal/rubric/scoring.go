// internal/rubric/scoring.go
package rubric

import (
	"math"

	"jury-service/internal/common/errors"
)

const (
	MinRating = 0
	MaxRating = 5
)

// SubScore converts a 0-5 rating into weighted points: rating * weight / 5.
func SubScore(rating int, weight float64) float64 {
	return float64(rating) * weight / MaxRating
}

// CategoryScore sums the sub-scores of one category. Ratings for
// criteria outside the category are ignored.
func (r *Rubric) CategoryScore(categoryID string, ratings map[string]int) float64 {
	for _, cat := range r.Categories {
		if cat.ID != categoryID {
			continue
		}
		score := 0.0
		for _, c := range cat.Criteria {
			if rating, ok := ratings[c.ID]; ok {
				score += SubScore(rating, c.Weight)
			}
		}
		return score
	}
	return 0
}

// TotalScore computes the weighted 0-100 total, rounded to one
// decimal. Unknown criterion ids are ignored, never scored. An all-5
// rating vector scores exactly 100; an all-0 vector scores exactly 0.
func (r *Rubric) TotalScore(ratings map[string]int) float64 {
	total := 0.0
	for _, cat := range r.Categories {
		total += r.CategoryScore(cat.ID, ratings)
	}
	return Round1(total)
}

// ValidateRatings rejects out-of-range ratings and incomplete rubrics.
// Unknown criterion ids pass validation; they simply never score.
func (r *Rubric) ValidateRatings(ratings map[string]int) error {
	for criterion, rating := range ratings {
		if rating < MinRating || rating > MaxRating {
			return errors.NewInvalidRatingError(criterion, rating)
		}
	}

	var missing []string
	for _, id := range r.CriterionIDs() {
		if _, ok := ratings[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return errors.NewRubricIncompleteError(missing)
	}
	return nil
}

// Round1 rounds to one decimal of precision, the precision evaluation
// scores are stored with.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
