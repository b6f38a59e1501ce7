// Package meetings provides the meeting lifecycle core: types, repository,
// service orchestration, and the provisioning reconciler. A meeting pairs a
// user with an agent and is backed by a remote video call whose id equals the
// meeting id.
package meetings

import (
	"fmt"
	"time"

	"github.com/parleyhq/parley/pkg/agents"
	perrors "github.com/parleyhq/parley/pkg/errors"
)

// Status represents a meeting's lifecycle status.
type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists all valid meeting statuses.
var Statuses = []Status{
	StatusUpcoming,
	StatusActive,
	StatusProcessing,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts a string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q: %w", s, perrors.ErrValidation)
	}
	return st, nil
}

// ProvisionState tracks remote call provisioning for a meeting. It is a saga
// substate internal to the backend, distinct from the user-facing Status.
type ProvisionState string

const (
	// ProvisionPending means the row exists but remote provisioning has not
	// completed. The reconciler retries these.
	ProvisionPending ProvisionState = "pending"

	// ProvisionReady means the remote call and participants are in place.
	ProvisionReady ProvisionState = "ready"

	// ProvisionFailed means retries were exhausted; the meeting needs
	// operator attention.
	ProvisionFailed ProvisionState = "failed"
)

// Meeting represents a scheduled session pairing a user and an agent.
type Meeting struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	AgentID        string         `json:"agent_id"`
	Name           string         `json:"name"`
	Status         Status         `json:"status"`
	ProvisionState ProvisionState `json:"provision_state"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	TranscriptURL  *string        `json:"transcript_url,omitempty"`
	RecordingURL   *string        `json:"recording_url,omitempty"`
	Summary        *string        `json:"summary,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// MeetingWithAgent is a meeting joined to its agent, with the derived
// duration in seconds. Duration is nil while either time bound is unset.
type MeetingWithAgent struct {
	Meeting
	Agent    agents.Agent `json:"agent"`
	Duration *float64     `json:"duration"`
}

// CreateInput is the input for creating a meeting.
type CreateInput struct {
	Name    string `json:"name"`
	AgentID string `json:"agent_id"`
}

// UpdateInput is the input for replacing a meeting's mutable fields.
type UpdateInput struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	AgentID       string     `json:"agent_id"`
	Status        Status     `json:"status"`
	StartedAt     *time.Time `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	TranscriptURL *string    `json:"transcript_url"`
	RecordingURL  *string    `json:"recording_url"`
	Summary       *string    `json:"summary"`
}

// Filter contains the optional list filters. The owner predicate is always
// applied separately and is not part of the filter.
type Filter struct {
	// Search matches meeting names case-insensitively by substring.
	Search string

	// AgentID restricts to meetings referencing the given agent.
	AgentID string

	// Status restricts to meetings in the given status.
	Status Status
}

// Page is one window of list results.
type Page struct {
	Items      []*MeetingWithAgent `json:"items"`
	Total      int64               `json:"total"`
	TotalPages int                 `json:"total_pages"`
}
