// internal/auth/keycloak_test.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func introspectionServer(t *testing.T, response map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/realms/marketplace/protocol/openid-connect/token/introspect", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "jury-service", r.PostForm.Get("client_id"))
		assert.NotEmpty(t, r.PostForm.Get("token"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func newTestProvider(serverURL string) *KeycloakProvider {
	return NewKeycloakProvider(serverURL, "marketplace", "jury-service", "secret")
}

// ==========================
// Identity Resolution
// ==========================

func TestCurrentEvaluator_JuryRole(t *testing.T) {
	srv := introspectionServer(t, map[string]interface{}{
		"active": true,
		"sub":    "j1",
		"name":   "Aminata Ba",
		"email":  "aminata@example.org",
		"realm_access": map[string]interface{}{
			"roles": []string{"offline_access", "jury"},
		},
	})
	defer srv.Close()

	evaluator, err := newTestProvider(srv.URL).CurrentEvaluator(context.Background(), "token-123")
	assert.NoError(t, err)

	assert.Equal(t, "j1", evaluator.ID)
	assert.Equal(t, models.RoleJury, evaluator.Role)
	assert.True(t, evaluator.Active)
}

func TestCurrentEvaluator_PresidentWinsOverJury(t *testing.T) {
	srv := introspectionServer(t, map[string]interface{}{
		"active": true,
		"sub":    "p1",
		"realm_access": map[string]interface{}{
			"roles": []string{"jury", "president_jury"},
		},
	})
	defer srv.Close()

	evaluator, err := newTestProvider(srv.URL).CurrentEvaluator(context.Background(), "token-123")
	assert.NoError(t, err)
	assert.Equal(t, models.RolePresidentJury, evaluator.Role)
}

func TestCurrentEvaluator_NoScoringRoleIsAdmin(t *testing.T) {
	srv := introspectionServer(t, map[string]interface{}{
		"active": true,
		"sub":    "a1",
		"realm_access": map[string]interface{}{
			"roles": []string{"offline_access"},
		},
	})
	defer srv.Close()

	evaluator, err := newTestProvider(srv.URL).CurrentEvaluator(context.Background(), "token-123")
	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, evaluator.Role)
	assert.False(t, evaluator.Role.CanEvaluate())
}

func TestCurrentEvaluator_InactiveTokenRejected(t *testing.T) {
	srv := introspectionServer(t, map[string]interface{}{"active": false})
	defer srv.Close()

	_, err := newTestProvider(srv.URL).CurrentEvaluator(context.Background(), "expired-token")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIdentityResolutionFailed))
}

func TestCurrentEvaluator_EmptyTokenRejected(t *testing.T) {
	_, err := newTestProvider("http://localhost:1").CurrentEvaluator(context.Background(), "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIdentityResolutionFailed))
}

func TestCurrentEvaluator_IntrospectionErrorRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized_client", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).CurrentEvaluator(context.Background(), "token-123")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeIdentityResolutionFailed))
}
