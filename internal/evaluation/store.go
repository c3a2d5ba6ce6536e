// internal/evaluation/store.go
package evaluation

import (
	"context"

	"jury-service/internal/models"
)

// Store is the persistence contract the workflow core depends on.
// CreateEvaluation must enforce at-most-one evaluation per
// (application, evaluator) pair and surface violations as
// DUPLICATE_EVALUATION; FinalizeDecision must run its read-then-write
// inside a single serializable unit so a late juror racing the
// president cannot slip past the quorum check.
type Store interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, ref string) (*models.Application, error)

	CreateEvaluation(ctx context.Context, eval *models.Evaluation) error
	ListEvaluations(ctx context.Context, applicationRef string) ([]models.Evaluation, error)

	UpdateApplicationStatus(ctx context.Context, ref string, status models.ApplicationStatus, reason string) error

	// FinalizeDecision atomically re-reads the application and its
	// evaluations, invokes check with that consistent snapshot, and on
	// nil persists the president's evaluation plus the status change.
	// Any error from check aborts the transaction untouched.
	FinalizeDecision(ctx context.Context, eval *models.Evaluation, status models.ApplicationStatus, reason string,
		check func(app *models.Application, evals []models.Evaluation) error) error
}
