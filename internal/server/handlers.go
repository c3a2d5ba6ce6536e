// internal/server/handlers.go
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"jury-service/internal/common/errors"
	"jury-service/internal/common/validation"
	"jury-service/internal/evaluation"
	"jury-service/internal/models"
)

type submitApplicationRequest struct {
	Applicant models.ApplicantProfile `json:"applicant"`
	Business  models.BusinessInfo     `json:"business"`
}

// handleSubmitApplication registers a new application after schema
// validation and returns its reference code.
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.errHandler.WriteError(w, errors.NewValidationFailedError("invalid JSON body"))
		return
	}

	result, err := validation.Validate(raw, validation.ApplicationSchema)
	if err != nil {
		s.errHandler.WriteError(w, errors.NewInternalError(err))
		return
	}
	if !result.Valid {
		s.errHandler.WriteError(w, errors.NewValidationFailedError(result.ErrorString()))
		return
	}

	var req submitApplicationRequest
	payload, _ := json.Marshal(raw)
	if err := json.Unmarshal(payload, &req); err != nil {
		s.errHandler.WriteError(w, errors.NewValidationFailedError("invalid application payload"))
		return
	}

	app, err := s.service.SubmitApplication(r.Context(), req.Applicant, req.Business)
	if err != nil {
		s.errHandler.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

// handleSubmitEvaluation records one evaluator's scoring of an
// application. The evaluator comes from the bearer token, never from
// the request body.
func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	evaluator, ok := evaluatorFrom(r)
	if !ok {
		s.errHandler.WriteError(w, errors.NewInvalidRoleError("unknown"))
		return
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.errHandler.WriteError(w, errors.NewValidationFailedError("invalid JSON body"))
		return
	}

	result, err := validation.Validate(raw, validation.EvaluationSchema)
	if err != nil {
		s.errHandler.WriteError(w, errors.NewInternalError(err))
		return
	}
	if !result.Valid {
		s.errHandler.WriteError(w, errors.NewValidationFailedError(result.ErrorString()))
		return
	}

	var in evaluation.SubmitInput
	payload, _ := json.Marshal(raw)
	if err := json.Unmarshal(payload, &in); err != nil {
		s.errHandler.WriteError(w, errors.NewValidationFailedError("invalid evaluation payload"))
		return
	}

	start := time.Now()
	out, err := s.service.SubmitEvaluation(r.Context(), *evaluator, r.PathValue("ref"), in)
	if s.obs != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.obs.RecordSubmission(r.Context(), status)
		s.obs.RecordSubmissionDuration(r.Context(), time.Since(start), status)
	}
	if err != nil {
		s.errHandler.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}

// handleSummary returns the aggregate evaluation state of one
// application.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.Context(), r.PathValue("ref"))
	if err != nil {
		s.errHandler.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleRemindJurors notifies jurors who have not yet evaluated.
func (s *Server) handleRemindJurors(w http.ResponseWriter, r *http.Request) {
	reminded, err := s.service.RemindPendingJurors(r.Context(), r.PathValue("ref"))
	if err != nil {
		s.errHandler.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reminded": reminded})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticated resolves the caller's evaluator identity from the
// Authorization header and stores it on the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.errHandler.WriteError(w, errors.NewIdentityResolutionFailedError("missing bearer token"))
			return
		}

		evaluator, err := s.identity.CurrentEvaluator(r.Context(), token)
		if err != nil {
			s.errHandler.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withEvaluator(r.Context(), evaluator)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
