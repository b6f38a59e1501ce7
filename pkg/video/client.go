package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parleyhq/parley/config"
	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

// httpClient is the default Client implementation. It talks to the provider's
// REST API for user upserts and call creation, and signs user access tokens
// locally with the API secret (the provider validates them against the same
// secret, so no network call is needed).
type httpClient struct {
	baseURL   string
	apiKey    string
	apiSecret []byte
	http      *http.Client
	logger    logging.Logger
}

// NewHTTPClient creates the default provider client from configuration.
func NewHTTPClient(cfg *config.ProviderConfig, logger logging.Logger) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base_url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider api_key is required")
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("provider api_secret is required")
	}

	return &httpClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: []byte(cfg.APISecret),
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger.With(logging.F("component", "video_client")),
	}, nil
}

// UpsertUsers registers or updates remote participant identities.
func (c *httpClient) UpsertUsers(ctx context.Context, users []User) error {
	byID := make(map[string]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	payload := map[string]interface{}{"users": byID}

	return c.post(ctx, "/users", payload, nil)
}

// CreateCall creates (or returns the existing) remote call resource. The call
// id equals the meeting id, which makes creation idempotent provider-side.
func (c *httpClient) CreateCall(ctx context.Context, callType, id string, req CreateCallRequest) (*Call, error) {
	path := fmt.Sprintf("/calls/%s/%s", url.PathEscape(callType), url.PathEscape(id))
	payload := map[string]interface{}{"data": req}

	var resp struct {
		Call Call `json:"call"`
	}
	if err := c.post(ctx, path, payload, &resp); err != nil {
		return nil, err
	}

	call := resp.Call
	if call.ID == "" {
		call.ID = id
	}
	if call.Type == "" {
		call.Type = callType
	}
	return &call, nil
}

// GenerateUserToken signs an HS256 access token with the API secret.
// iat precedes the current time by the configured leeway; exp ends the
// validity window.
func (c *httpClient) GenerateUserToken(ctx context.Context, req TokenRequest) (string, error) {
	if req.UserID == "" {
		return "", fmt.Errorf("token user id is required: %w", perrors.ErrValidation)
	}
	if !req.ExpiresAt.After(req.IssuedAt) {
		return "", fmt.Errorf("token expiry %s does not follow issued-at %s: %w",
			req.ExpiresAt.Format(time.RFC3339), req.IssuedAt.Format(time.RFC3339), perrors.ErrValidation)
	}

	claims := jwt.MapClaims{
		"user_id": req.UserID,
		"iat":     req.IssuedAt.Unix(),
		"exp":     req.ExpiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign user token: %w", err)
	}
	return token, nil
}

// post executes a JSON POST against the provider API and decodes the response
// into out when non-nil. HTTP and transport failures are classified into the
// domain provider-error taxonomy.
func (c *httpClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	u := c.baseURL + path + "?api_key=" + url.QueryEscape(c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	serverToken, err := c.serverToken()
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+serverToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// Timeouts and connection failures are transient.
		return fmt.Errorf("%s: %v: %w", path, err, perrors.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, perrors.ErrProviderUnavailable)
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: status %d: %s: %w", path, resp.StatusCode, bytes.TrimSpace(detail), perrors.ErrProvider)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", path, err)
		}
	}
	return nil
}

// serverToken signs a short-lived server-to-server token authenticating this
// application to the provider API.
func (c *httpClient) serverToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "server",
		"sub": c.apiKey,
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign server token: %w", err)
	}
	return token, nil
}
