// internal/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/models"
)

// IdentityProvider resolves the current evaluator from a request
// credential. The workflow core trusts the returned value;
// authentication mechanics stay behind this boundary.
type IdentityProvider interface {
	CurrentEvaluator(ctx context.Context, bearerToken string) (*models.Evaluator, error)
}

// KeycloakProvider resolves evaluators through Keycloak token
// introspection and maps realm roles onto scoring roles.
type KeycloakProvider struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewKeycloakProvider(baseURL, realm, clientID, clientSecret string) *KeycloakProvider {
	return &KeycloakProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// introspection holds the fields we use from Keycloak's introspection
// endpoint response.
type introspection struct {
	Active      bool   `json:"active"`
	Sub         string `json:"sub"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// CurrentEvaluator validates the bearer token and returns the evaluator
// identity carried by it.
func (k *KeycloakProvider) CurrentEvaluator(ctx context.Context, bearerToken string) (*models.Evaluator, error) {
	if bearerToken == "" {
		return nil, identityError("missing bearer token")
	}

	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", bearerToken)
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, identityError(fmt.Sprintf("build introspect request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, identityError(fmt.Sprintf("introspect request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, identityError(fmt.Sprintf("introspect status %d: %s", resp.StatusCode, string(body)))
	}

	var intro introspection
	if err := json.NewDecoder(resp.Body).Decode(&intro); err != nil {
		return nil, identityError(fmt.Sprintf("decode introspect response: %v", err))
	}
	if !intro.Active {
		return nil, identityError("token is not active")
	}

	return &models.Evaluator{
		ID:     intro.Sub,
		Name:   intro.Name,
		Email:  intro.Email,
		Phone:  intro.PhoneNumber,
		Role:   mapRole(intro.RealmAccess.Roles),
		Active: true,
	}, nil
}

// mapRole picks the scoring role from the realm roles. PRESIDENT_JURY
// wins over JURY when both are present.
func mapRole(realmRoles []string) models.Role {
	role := models.RoleAdmin
	for _, r := range realmRoles {
		switch strings.ToLower(r) {
		case "president_jury", "president-jury":
			return models.RolePresidentJury
		case "jury":
			role = models.RoleJury
		}
	}
	return role
}

func identityError(details string) *apperrors.StandardError {
	return apperrors.NewIdentityResolutionFailedError(details)
}
