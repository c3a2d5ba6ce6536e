// internal/evaluation/service.go
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/common/metrics"
	"jury-service/internal/models"
	"jury-service/internal/rubric"
)

// RosterProvider supplies the active evaluator roster per role.
type RosterProvider interface {
	ListActiveEvaluators(ctx context.Context, role models.Role) ([]models.Evaluator, error)
}

// Notifier delivers decision and reminder notifications. Failures must
// never block or roll back a persisted decision.
type Notifier interface {
	DecisionIssued(ctx context.Context, app *models.Application, decision models.Decision, reason string, averageScore float64) error
	RemindPendingJurors(ctx context.Context, app *models.Application, pending []models.Evaluator) error
}

// DocumentGenerator produces the approval artifact downstream of an
// APPROUVE decision.
type DocumentGenerator interface {
	GenerateApprovalDocument(ctx context.Context, app *models.Application, evals []models.Evaluation, totalScore float64) (string, error)
}

// AuditIndexer records evaluations and decisions in the audit index.
type AuditIndexer interface {
	IndexEvaluation(ctx context.Context, eval *models.Evaluation) error
	IndexDecision(ctx context.Context, app *models.Application, summary *Summary) error
}

// Service owns the application lifecycle: it is the single authority
// for the role, ordering and terminal-state invariants of the
// evaluation workflow.
type Service struct {
	store    Store
	roster   RosterProvider
	rubric   *rubric.Rubric
	notifier Notifier
	docgen   DocumentGenerator
	audit    AuditIndexer
	logger   logger.Logger
}

func NewService(store Store, roster RosterProvider, rub *rubric.Rubric, notifier Notifier, docgen DocumentGenerator, audit AuditIndexer, log logger.Logger) *Service {
	return &Service{
		store:    store,
		roster:   roster,
		rubric:   rub,
		notifier: notifier,
		docgen:   docgen,
		audit:    audit,
		logger:   log.WithFields(map[string]interface{}{"component": "evaluation-service"}),
	}
}

// SubmitInput is one evaluator's completed rubric, plus the decision
// fields that only a jury president may carry.
type SubmitInput struct {
	Ratings  map[string]int    `json:"ratings"`
	Comments map[string]string `json:"comments,omitempty"`
	Decision models.Decision   `json:"decision,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

// SubmitResult reports the persisted evaluation and the application's
// aggregate state after the submission.
type SubmitResult struct {
	Evaluation  *models.Evaluation       `json:"evaluation"`
	Status      models.ApplicationStatus `json:"status"`
	Summary     *Summary                 `json:"summary,omitempty"`
	DocumentURL string                   `json:"documentUrl,omitempty"`
}

// SubmitApplication registers a new exhibitor application with a fresh
// reference code and PENDING status.
func (s *Service) SubmitApplication(ctx context.Context, applicant models.ApplicantProfile, business models.BusinessInfo) (*models.Application, error) {
	app := &models.Application{
		Reference: newReference(),
		Applicant: applicant,
		Business:  business,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	app.UpdatedAt = app.CreatedAt

	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("application created", map[string]interface{}{
		"reference":   app.Reference,
		"companyName": business.CompanyName,
	})
	return app, nil
}

// SubmitEvaluation applies one evaluator's submission to the workflow.
// Jury members add a scored evaluation without touching the status; the
// jury president finalizes the decision once the quorum is complete.
func (s *Service) SubmitEvaluation(ctx context.Context, evaluator models.Evaluator, applicationRef string, in SubmitInput) (*SubmitResult, error) {
	result, err := s.submitEvaluation(ctx, evaluator, applicationRef, in)
	if err != nil {
		metrics.EvaluationsRejected.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		return nil, err
	}
	metrics.EvaluationsSubmitted.WithLabelValues(string(evaluator.Role)).Inc()
	return result, nil
}

func (s *Service) submitEvaluation(ctx context.Context, evaluator models.Evaluator, applicationRef string, in SubmitInput) (*SubmitResult, error) {
	if !evaluator.Role.CanEvaluate() || !evaluator.Active {
		return nil, apperrors.NewInvalidRoleError(string(evaluator.Role))
	}

	// Fail before write: all input validation happens ahead of any
	// persistence.
	if err := s.rubric.ValidateRatings(in.Ratings); err != nil {
		return nil, err
	}

	app, err := s.store.GetApplication(ctx, applicationRef)
	if err != nil {
		return nil, err
	}
	if app.Status.IsTerminal() {
		return nil, apperrors.NewAlreadyDecidedError(applicationRef, string(app.Status))
	}

	eval := &models.Evaluation{
		ID:             uuid.New().String(),
		ApplicationRef: applicationRef,
		EvaluatorID:    evaluator.ID,
		EvaluatorRole:  evaluator.Role,
		Ratings:        in.Ratings,
		Comments:       in.Comments,
		ScoreTotal:     s.rubric.TotalScore(in.Ratings),
		CreatedAt:      time.Now().UTC(),
	}

	if evaluator.Role == models.RoleJury {
		return s.submitJuryEvaluation(ctx, app, eval)
	}
	return s.submitPresidentDecision(ctx, evaluator, app, eval, in)
}

func (s *Service) submitJuryEvaluation(ctx context.Context, app *models.Application, eval *models.Evaluation) (*SubmitResult, error) {
	if err := s.store.CreateEvaluation(ctx, eval); err != nil {
		return nil, err
	}

	s.logger.Info("jury evaluation recorded", map[string]interface{}{
		"applicationRef": eval.ApplicationRef,
		"evaluatorId":    eval.EvaluatorID,
		"scoreTotal":     eval.ScoreTotal,
	})

	if err := s.audit.IndexEvaluation(ctx, eval); err != nil {
		s.logger.Warn("audit indexing failed", map[string]interface{}{
			"evaluationId": eval.ID,
			"error":        err,
		})
	}

	result := &SubmitResult{Evaluation: eval, Status: app.Status}
	if summary, err := s.Summary(ctx, eval.ApplicationRef); err == nil {
		result.Summary = summary
	}
	return result, nil
}

func (s *Service) submitPresidentDecision(ctx context.Context, evaluator models.Evaluator, app *models.Application, eval *models.Evaluation, in SubmitInput) (*SubmitResult, error) {
	switch in.Decision {
	case models.DecisionApprove:
	case models.DecisionReject:
		if strings.TrimSpace(in.Reason) == "" {
			return nil, apperrors.NewMissingReasonError()
		}
	case "":
		return nil, apperrors.NewMissingDecisionError()
	default:
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown decision value: %s", in.Decision))
	}

	juries, err := s.roster.ListActiveEvaluators(ctx, models.RoleJury)
	if err != nil {
		return nil, err
	}

	eval.Decision = in.Decision
	status := models.StatusApproved
	if in.Decision == models.DecisionReject {
		status = models.StatusRejected
	}

	// The quorum check and the write are one serializable unit: a late
	// juror racing this call cannot make the snapshot lie.
	check := func(current *models.Application, evals []models.Evaluation) error {
		if current.Status.IsTerminal() {
			return apperrors.NewAlreadyDecidedError(current.Reference, string(current.Status))
		}
		for _, e := range evals {
			if e.EvaluatorID == evaluator.ID {
				return apperrors.NewDuplicateEvaluationError(current.Reference, evaluator.ID)
			}
		}
		summary, err := Aggregate(juries, evals)
		if err != nil {
			return err
		}
		if !summary.AllJuriesEvaluated {
			return apperrors.NewPrematureDecisionError(summary.EvaluatedCount, summary.TotalJuryCount)
		}
		return nil
	}

	if err := s.store.FinalizeDecision(ctx, eval, status, in.Reason, check); err != nil {
		return nil, err
	}

	app.Status = status
	app.DecisionReason = in.Reason
	metrics.DecisionsIssued.WithLabelValues(string(in.Decision)).Inc()

	s.logger.Info("decision issued", map[string]interface{}{
		"applicationRef": app.Reference,
		"decision":       string(in.Decision),
		"status":         string(status),
	})

	result := &SubmitResult{Evaluation: eval, Status: status}

	evals, err := s.store.ListEvaluations(ctx, app.Reference)
	if err != nil {
		s.logger.Warn("post-decision evaluation listing failed", map[string]interface{}{
			"applicationRef": app.Reference,
			"error":          err,
		})
		evals = []models.Evaluation{*eval}
	}
	summary, aggErr := Aggregate(juries, evals)
	if aggErr != nil {
		summary = &Summary{FinalDecision: in.Decision, HasPresidentValidated: true}
	} else {
		result.Summary = summary
	}

	// Downstream collaborators are fire-and-forget: the persisted
	// decision is the source of truth and survives any outage here.
	if err := s.notifier.DecisionIssued(ctx, app, in.Decision, in.Reason, summary.AverageScore); err != nil {
		s.logger.Error("decision notification failed", map[string]interface{}{
			"applicationRef": app.Reference,
			"error":          err,
		})
	}
	if err := s.audit.IndexDecision(ctx, app, summary); err != nil {
		s.logger.Warn("audit indexing failed", map[string]interface{}{
			"applicationRef": app.Reference,
			"error":          err,
		})
	}
	if in.Decision == models.DecisionApprove {
		docURL, err := s.docgen.GenerateApprovalDocument(ctx, app, evals, summary.AverageScore)
		if err != nil {
			s.logger.Error("approval document generation failed", map[string]interface{}{
				"applicationRef": app.Reference,
				"error":          err,
			})
		} else {
			result.DocumentURL = docURL
		}
	}

	return result, nil
}

// Summary computes the aggregate evaluation state for one application.
func (s *Service) Summary(ctx context.Context, applicationRef string) (*Summary, error) {
	juries, err := s.roster.ListActiveEvaluators(ctx, models.RoleJury)
	if err != nil {
		return nil, err
	}
	evals, err := s.store.ListEvaluations(ctx, applicationRef)
	if err != nil {
		return nil, err
	}
	return Aggregate(juries, evals)
}

// RemindPendingJurors notifies every active juror who has not yet
// evaluated the application. Returns the number of jurors reminded.
func (s *Service) RemindPendingJurors(ctx context.Context, applicationRef string) (int, error) {
	app, err := s.store.GetApplication(ctx, applicationRef)
	if err != nil {
		return 0, err
	}
	summary, err := s.Summary(ctx, applicationRef)
	if err != nil {
		return 0, err
	}
	if len(summary.PendingJurors) == 0 {
		return 0, nil
	}
	if err := s.notifier.RemindPendingJurors(ctx, app, summary.PendingJurors); err != nil {
		s.logger.Error("juror reminder failed", map[string]interface{}{
			"applicationRef": applicationRef,
			"error":          err,
		})
	}
	return len(summary.PendingJurors), nil
}

// newReference generates the stable reference code handed to the
// applicant, e.g. MKT-1A2B3C4D.
func newReference() string {
	id := uuid.New().String()
	return "MKT-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
