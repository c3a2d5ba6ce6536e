// internal/models/evaluation.go
package models

import "time"

// Decision is the jury president's verdict on an application. The
// values come from the decision form and are stored verbatim.
type Decision string

const (
	DecisionApprove Decision = "APPROUVE"
	DecisionReject  Decision = "REJETE"
)

// Evaluation is one evaluator's completed rubric for one application.
// At most one evaluation exists per (application, evaluator) pair and
// records are immutable once created; they are retained for audit.
type Evaluation struct {
	ID             string            `json:"id"`
	ApplicationRef string            `json:"applicationRef"`
	EvaluatorID    string            `json:"evaluatorId"`
	EvaluatorRole  Role              `json:"evaluatorRole"`
	Ratings        map[string]int    `json:"ratings"`
	Comments       map[string]string `json:"comments,omitempty"`
	ScoreTotal     float64           `json:"scoreTotal"`
	// Decision is only meaningful on evaluations authored by a
	// PRESIDENT_JURY; empty otherwise.
	Decision  Decision  `json:"decision,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
