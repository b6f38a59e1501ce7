// Package video defines the client contract for the real-time video and
// transcription provider, plus the default HTTP implementation and a retrying
// decorator. The core services consume the Client interface only.
package video

import (
	"context"
	"time"
)

// Role values used when registering participants with the provider.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a remote participant identity.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

// RecordingSettings configures provider-side recording for a call.
type RecordingSettings struct {
	Mode    string `json:"mode"`
	Quality string `json:"quality"`
}

// TranscriptionSettings configures provider-side transcription for a call.
type TranscriptionSettings struct {
	Language          string `json:"language"`
	Mode              string `json:"mode"`
	ClosedCaptionMode string `json:"closed_caption_mode"`
}

// SettingsOverride carries per-call settings applied at creation.
type SettingsOverride struct {
	Recording     RecordingSettings     `json:"recording"`
	Transcription TranscriptionSettings `json:"transcription"`
}

// CreateCallRequest is the payload for creating a remote call resource.
type CreateCallRequest struct {
	CreatedByID      string            `json:"created_by_id"`
	Custom           map[string]string `json:"custom,omitempty"`
	SettingsOverride SettingsOverride  `json:"settings_override"`
}

// Call is the provider's representation of a meeting's live session. Its ID
// equals the meeting id, which doubles as the provider-side idempotency key.
type Call struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenRequest asks for a signed, time-bounded user access token.
// IssuedAt is backdated by a leeway to tolerate clock skew; ExpiresAt is the
// end of the validity window. Both are seconds-since-epoch on the wire.
type TokenRequest struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Client is the video provider contract consumed by the meeting lifecycle
// service. All operations are idempotent: user upserts by definition, call
// creation by call id.
type Client interface {
	// UpsertUsers registers or updates remote participant identities.
	UpsertUsers(ctx context.Context, users []User) error

	// CreateCall creates (or returns the existing) remote call resource with
	// the given type and id.
	CreateCall(ctx context.Context, callType, id string, req CreateCallRequest) (*Call, error)

	// GenerateUserToken issues a signed access token for the given user.
	GenerateUserToken(ctx context.Context, req TokenRequest) (string, error)
}
