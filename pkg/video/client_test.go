package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/config"
	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

func providerConfig(baseURL string) *config.ProviderConfig {
	return &config.ProviderConfig{
		BaseURL:        baseURL,
		APIKey:         "key-123",
		APISecret:      "super-secret",
		CallType:       "default",
		TokenTTL:       time.Hour,
		TokenLeeway:    time.Minute,
		RequestTimeout: 2 * time.Second,
	}
}

func newClient(t *testing.T, baseURL string) Client {
	t.Helper()
	c, err := NewHTTPClient(providerConfig(baseURL), logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNewHTTPClientRequiresSettings(t *testing.T) {
	logger := logging.NewNopLogger()

	cfg := providerConfig("http://example.com")
	cfg.BaseURL = ""
	_, err := NewHTTPClient(cfg, logger)
	assert.Error(t, err)

	cfg = providerConfig("http://example.com")
	cfg.APIKey = ""
	_, err = NewHTTPClient(cfg, logger)
	assert.Error(t, err)

	cfg = providerConfig("http://example.com")
	cfg.APISecret = ""
	_, err = NewHTTPClient(cfg, logger)
	assert.Error(t, err)
}

func TestGenerateUserTokenClaims(t *testing.T) {
	c := newClient(t, "http://unused.local")

	now := time.Now().Truncate(time.Second)
	issuedAt := now.Add(-time.Minute)
	expiresAt := now.Add(time.Hour)

	tokenStr, err := c.GenerateUserToken(context.Background(), TokenRequest{
		UserID:    "u-1",
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err)

	parsed, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "u-1", claims["user_id"])
	assert.Equal(t, float64(issuedAt.Unix()), claims["iat"])
	assert.Equal(t, float64(expiresAt.Unix()), claims["exp"])
	// Issued-at precedes expiration.
	assert.Less(t, claims["iat"].(float64), claims["exp"].(float64))
}

func TestGenerateUserTokenValidation(t *testing.T) {
	c := newClient(t, "http://unused.local")
	now := time.Now()

	_, err := c.GenerateUserToken(context.Background(), TokenRequest{
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	assert.True(t, perrors.IsValidation(err), "missing user id")

	_, err = c.GenerateUserToken(context.Background(), TokenRequest{
		UserID:    "u-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(-time.Hour),
	})
	assert.True(t, perrors.IsValidation(err), "expiry before issued-at")
}

func TestUpsertUsersRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]map[string]User

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "key-123", r.URL.Query().Get("api_key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	err := c.UpsertUsers(context.Background(), []User{
		{ID: "u-1", Name: "Ada", Role: RoleAdmin},
		{ID: "a-1", Name: "Tutor", Role: RoleUser},
	})
	require.NoError(t, err)

	assert.Equal(t, "/users", gotPath)
	assert.Contains(t, gotAuth, "Bearer ")
	require.Contains(t, gotBody, "users")
	assert.Equal(t, "Ada", gotBody["users"]["u-1"].Name)
	assert.Equal(t, RoleUser, gotBody["users"]["a-1"].Role)
}

func TestCreateCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls/default/m-1", r.URL.Path)

		var body struct {
			Data CreateCallRequest `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-1", body.Data.CreatedByID)
		assert.Equal(t, "m-1", body.Data.Custom["meetingId"])
		assert.Equal(t, "auto-on", body.Data.SettingsOverride.Recording.Mode)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"call": map[string]interface{}{"id": "m-1", "type": "default"},
		})
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	call, err := c.CreateCall(context.Background(), "default", "m-1", CreateCallRequest{
		CreatedByID: "u-1",
		Custom:      map[string]string{"meetingId": "m-1", "meetingName": "Session 1"},
		SettingsOverride: SettingsOverride{
			Recording: RecordingSettings{Mode: "auto-on", Quality: "1080p"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "m-1", call.ID)
	assert.Equal(t, "default", call.Type)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
		{"forbidden", http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newClient(t, srv.URL)
			err := c.UpsertUsers(context.Background(), []User{{ID: "u-1"}})
			require.Error(t, err)
			assert.True(t, perrors.IsProvider(err))
			assert.Equal(t, tt.wantRetryable, perrors.IsRetryable(err))
		})
	}
}

func TestConnectionFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newClient(t, srv.URL)
	err := c.UpsertUsers(context.Background(), []User{{ID: "u-1"}})
	require.Error(t, err)
	assert.True(t, perrors.IsRetryable(err))
}
