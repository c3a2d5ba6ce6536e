// internal/server/context.go
package server

import (
	"context"
	"net/http"

	"jury-service/internal/models"
)

type contextKey string

const evaluatorKey contextKey = "evaluator"

func withEvaluator(ctx context.Context, ev *models.Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorKey, ev)
}

func evaluatorFrom(r *http.Request) (*models.Evaluator, bool) {
	ev, ok := r.Context().Value(evaluatorKey).(*models.Evaluator)
	return ev, ok && ev != nil
}
