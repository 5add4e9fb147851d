package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// TokenPair is an access/refresh token pair issued by the auth provider.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IProvider is the contract of the hosted auth provider. Credential storage,
// token issuance and refresh all live on the provider side; this client only
// relays requests.
type IProvider interface {
	// GetUser resolves the identity behind an access token.
	GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error)
	// ExchangeCode trades a one-time sign-in code for a session token pair.
	ExchangeCode(ctx context.Context, code string) (*TokenPair, error)
	// Refresh trades a refresh token for a fresh token pair.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// SignOut revokes the session behind an access token.
	SignOut(ctx context.Context, accessToken string) error
	// AdminGetUser looks a user up by ID using the privileged service key.
	AdminGetUser(ctx context.Context, userID string) (*models.AuthUser, error)
}

// provider implements IProvider over the auth service's HTTP API.
type provider struct {
	cfg    *config.Config
	client *http.Client
}

// NewProvider creates an HTTP client for the hosted auth provider.
func NewProvider(cfg *config.Config) IProvider {
	return &provider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// providerError is the error body the auth service returns.
type providerError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (e *providerError) text() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	return "auth provider error"
}

func (p *provider) do(ctx context.Context, method, path string, query url.Values, body interface{}, bearer string, out interface{}) error {
	endpoint := p.cfg.AuthBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode auth request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.AuthAPIKey != "" {
		req.Header.Set("apikey", p.cfg.AuthAPIKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read auth provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		_ = json.Unmarshal(raw, &pe)
		return fmt.Errorf("auth provider returned %d: %s", resp.StatusCode, pe.text())
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode auth provider response: %w", err)
		}
	}
	return nil
}

func (p *provider) GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	var user models.AuthUser
	if err := p.do(ctx, http.MethodGet, "/user", nil, nil, accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth provider returned no user")
	}
	return &user, nil
}

func (p *provider) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	query := url.Values{"grant_type": {"authorization_code"}}
	body := map[string]string{"code": code}
	var pair TokenPair
	if err := p.do(ctx, http.MethodPost, "/token", query, body, "", &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, fmt.Errorf("auth provider returned an incomplete token pair")
	}
	return &pair, nil
}

func (p *provider) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	query := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := p.do(ctx, http.MethodPost, "/token", query, body, "", &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, fmt.Errorf("auth provider returned an incomplete token pair")
	}
	return &pair, nil
}

func (p *provider) SignOut(ctx context.Context, accessToken string) error {
	return p.do(ctx, http.MethodPost, "/logout", nil, nil, accessToken, nil)
}

func (p *provider) AdminGetUser(ctx context.Context, userID string) (*models.AuthUser, error) {
	if p.cfg.AuthServiceKey == "" {
		return nil, fmt.Errorf("AUTH_SERVICE_KEY is not configured")
	}
	var user models.AuthUser
	if err := p.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(userID), nil, nil, p.cfg.AuthServiceKey, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("auth provider returned no user")
	}
	return &user, nil
}
