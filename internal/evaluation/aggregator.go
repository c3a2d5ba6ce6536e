// internal/evaluation/aggregator.go
package evaluation

import (
	"jury-service/internal/common/errors"
	"jury-service/internal/models"
	"jury-service/internal/rubric"
)

// Summary answers, for one application: has every eligible juror
// evaluated it, and what is the resulting consensus score?
type Summary struct {
	EvaluatedCount int                `json:"evaluatedCount"`
	TotalJuryCount int                `json:"totalJuryCount"`
	PendingJurors  []models.Evaluator `json:"pendingJurors,omitempty"`

	AllJuriesEvaluated bool    `json:"allJuriesEvaluated"`
	AverageScore       float64 `json:"averageScore"`

	HasPresidentValidated bool            `json:"hasPresidentValidated"`
	FinalDecision         models.Decision `json:"finalDecision,omitempty"`
}

// Aggregate computes the completion and consensus state from the
// active JURY roster and the evaluations on file.
//
// Only active JURY evaluators count toward the quorum denominator; the
// president's score joins the average once it exists. An empty juror
// roster is a configuration error: accepting it would let a president
// finalize immediately with no review at all.
func Aggregate(juries []models.Evaluator, evals []models.Evaluation) (*Summary, error) {
	if len(juries) == 0 {
		return nil, errors.NewEmptyJuryRosterError()
	}

	byEvaluator := make(map[string]*models.Evaluation, len(evals))
	for i := range evals {
		byEvaluator[evals[i].EvaluatorID] = &evals[i]
	}

	summary := &Summary{
		TotalJuryCount: len(juries),
	}

	for _, juror := range juries {
		if _, ok := byEvaluator[juror.ID]; ok {
			summary.EvaluatedCount++
		} else {
			summary.PendingJurors = append(summary.PendingJurors, juror)
		}
	}
	summary.AllJuriesEvaluated = summary.EvaluatedCount == summary.TotalJuryCount

	scoreSum := 0.0
	scored := 0
	for _, e := range evals {
		if !e.EvaluatorRole.CanEvaluate() {
			continue
		}
		scoreSum += e.ScoreTotal
		scored++

		if e.EvaluatorRole == models.RolePresidentJury && e.Decision != "" {
			summary.HasPresidentValidated = true
			summary.FinalDecision = e.Decision
		}
	}
	if scored > 0 {
		summary.AverageScore = rubric.Round1(scoreSum / float64(scored))
	}

	return summary, nil
}
