// internal/docgen/client.go
package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jury-service/internal/common/config"
	apperrors "jury-service/internal/common/errors"
	httpclient "jury-service/internal/common/http"
	"jury-service/internal/common/logger"
	"jury-service/internal/models"
)

// Client calls the attestation service to produce the approval
// document for an accepted application. Generation runs after the
// decision is committed; a failure here is reported to the caller but
// never undoes the decision.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *httpclient.Client
	logger     logger.Logger
}

func NewClient(cfg config.DocumentsConfig, log logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpclient.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "docgen"}),
	}
}

type generateRequest struct {
	Application  *models.Application `json:"application"`
	Evaluations  []models.Evaluation `json:"evaluations"`
	AverageScore float64             `json:"averageScore"`
}

type generateResponse struct {
	DocumentURL string `json:"documentUrl"`
}

// GenerateApprovalDocument returns the URL of the generated attestation.
func (c *Client) GenerateApprovalDocument(ctx context.Context, app *models.Application, evals []models.Evaluation, totalScore float64) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Application:  app,
		Evaluations:  evals,
		AverageScore: totalScore,
	})
	if err != nil {
		return "", fmt.Errorf("marshal document request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/attestations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build document request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", apperrors.NewDocumentGenerationFailedError(fmt.Errorf("document service request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewDocumentGenerationFailedError(fmt.Errorf("read document response: %w", err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", apperrors.NewDocumentGenerationFailedError(fmt.Errorf("document service returned %d: %s", resp.StatusCode, string(body)))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.NewDocumentGenerationFailedError(fmt.Errorf("decode document response: %w", err))
	}

	c.logger.Info("approval document generated", map[string]interface{}{
		"applicationRef": app.Reference,
		"documentUrl":    out.DocumentURL,
	})
	return out.DocumentURL, nil
}
