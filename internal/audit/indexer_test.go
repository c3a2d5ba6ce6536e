// internal/audit/indexer_test.go
package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/evaluation"
	"jury-service/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type indexedDoc struct {
	path string
	body map[string]interface{}
}

// fakeElasticsearch captures index requests. The product header keeps
// the v8 client's server check happy.
func fakeElasticsearch(t *testing.T, captured *[]indexedDoc, status int) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodPut || r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			var doc map[string]interface{}
			json.Unmarshal(body, &doc)
			*captured = append(*captured, indexedDoc{path: r.URL.Path, body: doc})
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{"result": "created"})
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	assert.NoError(t, err)
	return client
}

// ==========================
// Indexing Tests
// ==========================

func TestIndexEvaluation(t *testing.T) {
	var captured []indexedDoc
	client := fakeElasticsearch(t, &captured, http.StatusCreated)
	indexer := NewIndexer(client, "jury-audit", logger.NewNoOpLogger())

	err := indexer.IndexEvaluation(context.Background(), &models.Evaluation{
		ID:             "eval-1",
		ApplicationRef: "MKT-TEST0001",
		EvaluatorID:    "j1",
		EvaluatorRole:  models.RoleJury,
		Ratings:        map[string]int{"originalite": 4},
		ScoreTotal:     80,
		CreatedAt:      time.Now().UTC(),
	})
	assert.NoError(t, err)

	assert.Len(t, captured, 1)
	assert.True(t, strings.HasPrefix(captured[0].path, "/jury-audit/"))
	assert.Equal(t, "evaluation_submitted", captured[0].body["eventType"])
	assert.Equal(t, "MKT-TEST0001", captured[0].body["applicationRef"])
	assert.Equal(t, 80.0, captured[0].body["scoreTotal"])
}

func TestIndexDecision(t *testing.T) {
	var captured []indexedDoc
	client := fakeElasticsearch(t, &captured, http.StatusCreated)
	indexer := NewIndexer(client, "jury-audit", logger.NewNoOpLogger())

	app := &models.Application{
		Reference:      "MKT-TEST0001",
		Status:         models.StatusRejected,
		DecisionReason: "Dossier incomplet",
	}
	summary := &evaluation.Summary{
		EvaluatedCount: 3,
		TotalJuryCount: 3,
		AverageScore:   42.5,
	}

	err := indexer.IndexDecision(context.Background(), app, summary)
	assert.NoError(t, err)

	assert.Len(t, captured, 1)
	assert.Equal(t, "decision_issued", captured[0].body["eventType"])
	assert.Equal(t, "REJECTED", captured[0].body["status"])
	assert.Equal(t, "Dossier incomplet", captured[0].body["decisionReason"])
	assert.Equal(t, 42.5, captured[0].body["averageScore"])
}

func TestIndexEvaluation_ServerErrorReported(t *testing.T) {
	var captured []indexedDoc
	client := fakeElasticsearch(t, &captured, http.StatusServiceUnavailable)
	indexer := NewIndexer(client, "jury-audit", logger.NewNoOpLogger())

	err := indexer.IndexEvaluation(context.Background(), &models.Evaluation{ID: "eval-1"})
	assert.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeAuditIndexFailed))
}
