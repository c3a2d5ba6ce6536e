// internal/evaluation/postgres.go
package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/models"
)

// uniqueViolation is the postgres error code raised by the
// (application_ref, evaluator_id) unique constraint.
const uniqueViolation = "23505"

// PostgresStore persists applications and evaluations.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "evaluation-store"}),
	}
}

func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application) error {
	applicantJSON, err := json.Marshal(app.Applicant)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal applicant: %w", err))
	}
	businessJSON, err := json.Marshal(app.Business)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal business: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (
			reference, applicant, business, status, decision_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, '', $5, $5)`,
		app.Reference,
		applicantJSON,
		businessJSON,
		string(app.Status),
		app.CreatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	s.writeAuditLog(ctx, "application_created", "application", app.Reference, map[string]interface{}{
		"companyName": app.Business.CompanyName,
	})

	return nil
}

func (s *PostgresStore) GetApplication(ctx context.Context, ref string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT reference, applicant, business, status, decision_reason, created_at, updated_at
		FROM applications WHERE reference = $1`, ref)
	return scanApplication(row, ref)
}

func (s *PostgresStore) CreateEvaluation(ctx context.Context, eval *models.Evaluation) error {
	if err := s.insertEvaluation(ctx, s.db, eval); err != nil {
		return err
	}
	s.writeEvaluationAudit(ctx, eval)
	return nil
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, applicationRef string) ([]models.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, listEvaluationsQuery, applicationRef)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list-evaluations", err)
	}
	defer rows.Close()
	return scanEvaluations(rows)
}

func (s *PostgresStore) UpdateApplicationStatus(ctx context.Context, ref string, status models.ApplicationStatus, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE applications SET status = $2, decision_reason = $3, updated_at = $4
		WHERE reference = $1`,
		ref, string(status), reason, time.Now().UTC())
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update-status", err)
	}
	return nil
}

// FinalizeDecision runs the quorum check and the president's write as
// one serializable unit. The application row is locked FOR UPDATE so
// concurrent finalization attempts serialize; the evaluations snapshot
// passed to check is the one the write commits against.
func (s *PostgresStore) FinalizeDecision(ctx context.Context, eval *models.Evaluation, status models.ApplicationStatus, reason string,
	check func(app *models.Application, evals []models.Evaluation) error) error {

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("begin-finalize", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT reference, applicant, business, status, decision_reason, created_at, updated_at
		FROM applications WHERE reference = $1 FOR UPDATE`, eval.ApplicationRef)
	app, err := scanApplication(row, eval.ApplicationRef)
	if err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, listEvaluationsQuery, eval.ApplicationRef)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("list-evaluations", err)
	}
	evals, err := scanEvaluations(rows)
	rows.Close()
	if err != nil {
		return err
	}

	if err := check(app, evals); err != nil {
		return err
	}

	if err := s.insertEvaluation(ctx, tx, eval); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE applications SET status = $2, decision_reason = $3, updated_at = $4
		WHERE reference = $1`,
		eval.ApplicationRef, string(status), reason, time.Now().UTC())
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update-status", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewQueryExecutionFailedError("commit-finalize", err)
	}

	// Audit entries go through the pool connection after commit. A
	// failed statement inside the transaction would abort it, and the
	// audit trail must never undo a committed decision.
	s.writeEvaluationAudit(ctx, eval)
	s.writeAuditLog(ctx, "decision_issued", "application", eval.ApplicationRef, map[string]interface{}{
		"decision":    string(eval.Decision),
		"status":      string(status),
		"evaluatorId": eval.EvaluatorID,
	})

	return nil
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const listEvaluationsQuery = `
	SELECT id, application_ref, evaluator_id, evaluator_role, ratings, comments, score_total, COALESCE(decision, ''), created_at
	FROM evaluations WHERE application_ref = $1 ORDER BY created_at`

func (s *PostgresStore) insertEvaluation(ctx context.Context, db execer, eval *models.Evaluation) error {
	ratingsJSON, err := json.Marshal(eval.Ratings)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal ratings: %w", err))
	}
	commentsJSON, err := json.Marshal(eval.Comments)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal comments: %w", err))
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, application_ref, evaluator_id, evaluator_role, ratings, comments, score_total, decision, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`,
		eval.ID,
		eval.ApplicationRef,
		eval.EvaluatorID,
		string(eval.EvaluatorRole),
		ratingsJSON,
		commentsJSON,
		eval.ScoreTotal,
		string(eval.Decision),
		eval.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewDuplicateEvaluationError(eval.ApplicationRef, eval.EvaluatorID)
		}
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	return nil
}

func (s *PostgresStore) writeEvaluationAudit(ctx context.Context, eval *models.Evaluation) {
	s.writeAuditLog(ctx, "evaluation_created", "evaluation", eval.ID, map[string]interface{}{
		"applicationRef": eval.ApplicationRef,
		"evaluatorId":    eval.EvaluatorID,
		"scoreTotal":     eval.ScoreTotal,
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner, ref string) (*models.Application, error) {
	var app models.Application
	var applicantJSON, businessJSON []byte
	var status string

	err := row.Scan(&app.Reference, &applicantJSON, &businessJSON, &status, &app.DecisionReason, &app.CreatedAt, &app.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewApplicationNotFoundError(ref)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get-application", err)
	}

	app.Status = models.ApplicationStatus(status)
	if err := json.Unmarshal(applicantJSON, &app.Applicant); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get-application", err)
	}
	if err := json.Unmarshal(businessJSON, &app.Business); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get-application", err)
	}
	return &app, nil
}

func scanEvaluations(rows *sql.Rows) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	for rows.Next() {
		var e models.Evaluation
		var ratingsJSON, commentsJSON []byte
		var role, decision string

		err := rows.Scan(&e.ID, &e.ApplicationRef, &e.EvaluatorID, &role, &ratingsJSON, &commentsJSON, &e.ScoreTotal, &decision, &e.CreatedAt)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan-evaluation", err)
		}
		e.EvaluatorRole = models.Role(role)
		e.Decision = models.Decision(decision)
		if err := json.Unmarshal(ratingsJSON, &e.Ratings); err != nil {
			e.Ratings = map[string]int{}
		}
		if len(commentsJSON) > 0 {
			if err := json.Unmarshal(commentsJSON, &e.Comments); err != nil {
				e.Comments = map[string]string{}
			}
		}
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("scan-evaluation", err)
	}
	return evals, nil
}

// writeAuditLog records a non-critical audit entry on the pool
// connection, never on an open transaction. Failures are logged, never
// propagated: the decision record is the source of truth.
func (s *PostgresStore) writeAuditLog(ctx context.Context, action, entityType, entityID string, details map[string]interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		action, entityType, entityID, detailsJSON, time.Now().UTC())
	if err != nil {
		s.logger.Warn("audit log write failed", map[string]interface{}{
			"action":   action,
			"entityId": entityID,
			"error":    err,
		})
	}
}
