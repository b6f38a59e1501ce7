package meetings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/config"
	"github.com/parleyhq/parley/pkg/agents"
	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/identity"
	"github.com/parleyhq/parley/pkg/logging"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/pagination"
	"github.com/parleyhq/parley/pkg/video"
)

// Store is the meeting persistence contract consumed by the service and the
// reconciler.
type Store interface {
	Create(ctx context.Context, m *Meeting) error
	GetByIDForUser(ctx context.Context, id, userID string) (*MeetingWithAgent, error)
	GetByID(ctx context.Context, id string) (*Meeting, error)
	List(ctx context.Context, userID string, f Filter, limit, offset int) ([]*MeetingWithAgent, error)
	Count(ctx context.Context, userID string, f Filter) (int64, error)
	Update(ctx context.Context, userID string, in UpdateInput) (*Meeting, error)
	Delete(ctx context.Context, id, userID string) (*Meeting, error)
	DeleteAny(ctx context.Context, id string) error
	SetProvisionState(ctx context.Context, id string, state ProvisionState) error
	ListStuckPending(ctx context.Context, cutoff time.Time, limit int) ([]*Meeting, error)
}

// AgentLookup resolves agents referenced by meetings.
type AgentLookup interface {
	GetByID(ctx context.Context, id string) (*agents.Agent, error)
}

// Service orchestrates the meeting lifecycle: creation against the remote
// provider, owner-scoped reads and writes, and access-token issuance.
type Service struct {
	store   Store
	agents  AgentLookup
	client  video.Client
	queue   RetryQueue
	cfg     *config.Config
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  logging.Logger

	now func() time.Time
}

// NewService creates a new meeting service.
func NewService(store Store, agentLookup AgentLookup, client video.Client, queue RetryQueue, cfg *config.Config, metrics *observability.Metrics, logger logging.Logger) *Service {
	return &Service{
		store:   store,
		agents:  agentLookup,
		client:  client,
		queue:   queue,
		cfg:     cfg,
		metrics: metrics,
		tracer:  observability.NewTracer(),
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates the input, inserts the meeting, and provisions the remote
// call. The remote call id equals the meeting id. When the provider is
// temporarily unavailable the meeting is returned in the pending provision
// state and a retry is scheduled; when the provider rejects the call outright
// the row is removed and the rejection surfaced.
func (s *Service) Create(ctx context.Context, caller identity.Caller, in CreateInput) (*Meeting, error) {
	ctx, span := s.tracer.StartOperation(ctx, "meetings.create", caller.ID)
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer s.observe("meetings.create", s.now())

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		err = fmt.Errorf("name must not be empty: %w", perrors.ErrValidation)
		return nil, err
	}
	if in.AgentID == "" {
		err = fmt.Errorf("agent_id must not be empty: %w", perrors.ErrValidation)
		return nil, err
	}

	// Resolve the agent before inserting anything so a bad reference never
	// leaves a row behind.
	agent, err := s.agents.GetByID(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}

	m := &Meeting{
		ID:             uuid.New().String(),
		UserID:         caller.ID,
		AgentID:        agent.ID,
		Name:           in.Name,
		Status:         StatusUpcoming,
		ProvisionState: ProvisionPending,
	}
	if err = s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	if err = s.provision(ctx, m, caller, agent); err != nil {
		if perrors.IsRetryable(err) {
			// The row stays pending; the reconciler converges it.
			s.metrics.ProvisionFailuresTotal.WithLabelValues(observability.ReasonProviderUnavailable).Inc()
			s.scheduleRetry(ctx, m.ID, 1)
			s.logger.Warn("meeting created with provisioning deferred",
				logging.F("meeting_id", m.ID), logging.Err(err))
			err = nil
			return m, nil
		}

		// Definitive rejection: compensate by removing the row.
		s.metrics.ProvisionFailuresTotal.WithLabelValues(observability.ReasonProviderRejected).Inc()
		if delErr := s.store.DeleteAny(ctx, m.ID); delErr != nil {
			s.logger.Error("failed to remove meeting after provisioning rejection",
				logging.F("meeting_id", m.ID), logging.Err(delErr))
		}
		return nil, err
	}

	if err = s.store.SetProvisionState(ctx, m.ID, ProvisionReady); err != nil {
		return nil, err
	}
	m.ProvisionState = ProvisionReady
	s.metrics.ProvisionedTotal.Inc()
	return m, nil
}

// provision performs the remote side of meeting creation: register the owner,
// create the call, register the agent as a participant.
func (s *Service) provision(ctx context.Context, m *Meeting, caller identity.Caller, agent *agents.Agent) error {
	if err := s.client.UpsertUsers(ctx, []video.User{{
		ID:    caller.ID,
		Name:  caller.Name,
		Role:  video.RoleAdmin,
		Image: caller.Image,
	}}); err != nil {
		return err
	}

	p := s.cfg.Provider
	if _, err := s.client.CreateCall(ctx, p.CallType, m.ID, video.CreateCallRequest{
		CreatedByID: m.UserID,
		Custom: map[string]string{
			"meetingId":   m.ID,
			"meetingName": m.Name,
		},
		SettingsOverride: video.SettingsOverride{
			Recording: video.RecordingSettings{
				Mode:    p.Recording.Mode,
				Quality: p.Recording.Quality,
			},
			Transcription: video.TranscriptionSettings{
				Language:          p.Transcription.Language,
				Mode:              p.Transcription.Mode,
				ClosedCaptionMode: p.Transcription.ClosedCaptionMode,
			},
		},
	}); err != nil {
		return err
	}

	return s.client.UpsertUsers(ctx, []video.User{{
		ID:   agent.ID,
		Name: agent.Name,
		Role: video.RoleUser,
	}})
}

func (s *Service) scheduleRetry(ctx context.Context, meetingID string, attempt int) {
	backoff := retryBackoff(s.cfg.Reconciler, attempt)
	if err := s.queue.Enqueue(ctx, meetingID, attempt, s.now().Add(backoff)); err != nil {
		// The stuck-row scan still finds the meeting.
		s.logger.Error("failed to schedule provisioning retry",
			logging.F("meeting_id", meetingID), logging.Err(err))
	}
}

// retryBackoff computes the delay before the given attempt, growing
// exponentially up to the configured cap.
func retryBackoff(cfg config.ReconcilerConfig, attempt int) time.Duration {
	backoff := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		if backoff >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	if backoff > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return backoff
}

// GetOne returns the caller's meeting with its agent and derived duration.
func (s *Service) GetOne(ctx context.Context, caller identity.Caller, id string) (*MeetingWithAgent, error) {
	defer s.observe("meetings.get_one", s.now())
	return s.store.GetByIDForUser(ctx, id, caller.ID)
}

// GetMany returns one page of the caller's meetings, newest first, with the
// total count across all pages. Page bounds are checked before any storage
// access.
func (s *Service) GetMany(ctx context.Context, caller identity.Caller, f Filter, params pagination.Params) (*Page, error) {
	ctx, span := s.tracer.StartOperation(ctx, "meetings.get_many", caller.ID)
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer s.observe("meetings.get_many", s.now())

	params = params.Normalize(s.cfg.Pagination)
	if err = params.Validate(s.cfg.Pagination); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		err = fmt.Errorf("unknown status %q: %w", f.Status, perrors.ErrValidation)
		return nil, err
	}

	limit, offset := params.LimitOffset()
	items, err := s.store.List(ctx, caller.ID, f, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, caller.ID, f)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Total:      total,
		TotalPages: pagination.TotalPages(total, params.PageSize),
	}, nil
}

// Update replaces the mutable fields of the caller's meeting. The status must
// be one of the enumerated values; no transition order is enforced.
func (s *Service) Update(ctx context.Context, caller identity.Caller, in UpdateInput) (*Meeting, error) {
	ctx, span := s.tracer.StartOperation(ctx, "meetings.update", caller.ID)
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer s.observe("meetings.update", s.now())

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		err = fmt.Errorf("name must not be empty: %w", perrors.ErrValidation)
		return nil, err
	}
	if in.AgentID == "" {
		err = fmt.Errorf("agent_id must not be empty: %w", perrors.ErrValidation)
		return nil, err
	}
	if !in.Status.Valid() {
		err = fmt.Errorf("unknown status %q: %w", in.Status, perrors.ErrValidation)
		return nil, err
	}

	var m *Meeting
	m, err = s.store.Update(ctx, caller.ID, in)
	return m, err
}

// Remove deletes the caller's meeting and returns the deleted row. The remote
// call resource is left to the provider's own retention; any scheduled
// provisioning retry is dropped.
func (s *Service) Remove(ctx context.Context, caller identity.Caller, id string) (*Meeting, error) {
	ctx, span := s.tracer.StartOperation(ctx, "meetings.remove", caller.ID)
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer s.observe("meetings.remove", s.now())

	var m *Meeting
	m, err = s.store.Delete(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	if qErr := s.queue.Remove(ctx, id); qErr != nil {
		s.logger.Warn("failed to drop provisioning retry for removed meeting",
			logging.F("meeting_id", id), logging.Err(qErr))
	}
	return m, nil
}

// GenerateToken registers the caller with the provider and issues a signed
// access token for joining calls. The token is not bound to a specific
// meeting. Repeated calls are independent and each yields a valid token.
func (s *Service) GenerateToken(ctx context.Context, caller identity.Caller) (string, error) {
	ctx, span := s.tracer.StartOperation(ctx, "meetings.generate_token", caller.ID)
	var err error
	defer func() { observability.EndSpan(span, err) }()
	defer s.observe("meetings.generate_token", s.now())

	if err = s.client.UpsertUsers(ctx, []video.User{{
		ID:    caller.ID,
		Name:  caller.Name,
		Role:  video.RoleAdmin,
		Image: caller.Image,
	}}); err != nil {
		return "", err
	}

	now := s.now()
	var token string
	token, err = s.client.GenerateUserToken(ctx, video.TokenRequest{
		UserID:    caller.ID,
		IssuedAt:  now.Add(-s.cfg.Provider.TokenLeeway),
		ExpiresAt: now.Add(s.cfg.Provider.TokenTTL),
	})
	return token, err
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.OperationSeconds.WithLabelValues(operation).Observe(s.now().Sub(start).Seconds())
}
