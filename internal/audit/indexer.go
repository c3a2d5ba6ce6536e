// internal/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/evaluation"
	"jury-service/internal/models"
)

// Indexer writes an append-only trail of evaluations and decisions to
// Elasticsearch. Index failures are reported to the caller, which logs
// them; the workflow itself never depends on the index being reachable.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = "evaluation-audit"
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

type evaluationDocument struct {
	EventType      string            `json:"eventType"`
	ApplicationRef string            `json:"applicationRef"`
	EvaluatorID    string            `json:"evaluatorId"`
	EvaluatorRole  string            `json:"evaluatorRole"`
	Ratings        map[string]int    `json:"ratings"`
	Comments       map[string]string `json:"comments,omitempty"`
	ScoreTotal     float64           `json:"scoreTotal"`
	Timestamp      time.Time         `json:"timestamp"`
}

type decisionDocument struct {
	EventType      string    `json:"eventType"`
	ApplicationRef string    `json:"applicationRef"`
	Status         string    `json:"status"`
	DecisionReason string    `json:"decisionReason,omitempty"`
	AverageScore   float64   `json:"averageScore"`
	EvaluatedCount int       `json:"evaluatedCount"`
	TotalJuryCount int       `json:"totalJuryCount"`
	Timestamp      time.Time `json:"timestamp"`
}

func (i *Indexer) IndexEvaluation(ctx context.Context, eval *models.Evaluation) error {
	doc := evaluationDocument{
		EventType:      "evaluation_submitted",
		ApplicationRef: eval.ApplicationRef,
		EvaluatorID:    eval.EvaluatorID,
		EvaluatorRole:  string(eval.EvaluatorRole),
		Ratings:        eval.Ratings,
		Comments:       eval.Comments,
		ScoreTotal:     eval.ScoreTotal,
		Timestamp:      eval.CreatedAt,
	}
	return i.indexDocument(ctx, doc)
}

func (i *Indexer) IndexDecision(ctx context.Context, app *models.Application, summary *evaluation.Summary) error {
	doc := decisionDocument{
		EventType:      "decision_issued",
		ApplicationRef: app.Reference,
		Status:         string(app.Status),
		DecisionReason: app.DecisionReason,
		Timestamp:      time.Now().UTC(),
	}
	if summary != nil {
		doc.AverageScore = summary.AverageScore
		doc.EvaluatedCount = summary.EvaluatedCount
		doc.TotalJuryCount = summary.TotalJuryCount
	}
	return i.indexDocument(ctx, doc)
}

func (i *Indexer) indexDocument(ctx context.Context, doc interface{}) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal audit document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: uuid.New().String(),
		Body:       bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return apperrors.NewAuditIndexFailedError(fmt.Errorf("index audit document: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewAuditIndexFailedError(fmt.Errorf("audit index error: %s", res.Status()))
	}
	return nil
}
