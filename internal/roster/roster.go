// internal/roster/roster.go
package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/models"
)

// Provider lists the active evaluators for a role. The aggregator uses
// it to compute the quorum denominator.
type Provider interface {
	ListActiveEvaluators(ctx context.Context, role models.Role) ([]models.Evaluator, error)
}

// PostgresProvider reads the evaluator roster from postgres with a
// short-lived redis cache in front. Roster changes are rare; stale
// reads within the TTL are acceptable for dashboards, and the decision
// path re-reads inside its transaction window anyway.
type PostgresProvider struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewPostgresProvider(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *PostgresProvider {
	return &PostgresProvider{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "roster"}),
	}
}

func cacheKey(role models.Role) string {
	return "roster:role:" + string(role)
}

func (p *PostgresProvider) ListActiveEvaluators(ctx context.Context, role models.Role) ([]models.Evaluator, error) {
	if p.cache != nil {
		if val, err := p.cache.Get(ctx, cacheKey(role)).Result(); err == nil {
			var evaluators []models.Evaluator
			if err := json.Unmarshal([]byte(val), &evaluators); err == nil {
				return evaluators, nil
			}
		}
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, email, phone, role
		FROM evaluators WHERE role = $1 AND active = true ORDER BY name`, string(role))
	if err != nil {
		return nil, apperrors.NewRosterLookupFailedError(err)
	}
	defer rows.Close()

	var evaluators []models.Evaluator
	for rows.Next() {
		var e models.Evaluator
		var r string
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &r); err != nil {
			return nil, apperrors.NewRosterLookupFailedError(err)
		}
		e.Role = models.Role(r)
		e.Active = true
		evaluators = append(evaluators, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRosterLookupFailedError(err)
	}

	if p.cache != nil {
		data, _ := json.Marshal(evaluators)
		if err := p.cache.Set(ctx, cacheKey(role), data, p.cacheTTL).Err(); err != nil {
			p.logger.Warn("roster cache write failed", map[string]interface{}{
				"role":  string(role),
				"error": err,
			})
		}
	}

	return evaluators, nil
}

// Invalidate drops the cached roster for a role after administrative
// changes.
func (p *PostgresProvider) Invalidate(ctx context.Context, role models.Role) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Del(ctx, cacheKey(role)).Err()
}
