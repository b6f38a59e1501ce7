package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/identity"
	"github.com/parleyhq/parley/pkg/logging"
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, a *Agent) error
	GetByID(ctx context.Context, id string) (*Agent, error)
	List(ctx context.Context) ([]*Agent, error)
	Update(ctx context.Context, userID string, in UpdateInput) (*Agent, error)
}

// Service implements agent operations.
type Service struct {
	store  Store
	logger logging.Logger
}

// NewService creates a new agent service.
func NewService(store Store, logger logging.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With(logging.F("component", "agent_service")),
	}
}

// Create creates a new agent owned by the caller.
func (s *Service) Create(ctx context.Context, caller identity.Caller, in CreateInput) (*Agent, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", perrors.ErrValidation)
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return nil, fmt.Errorf("instructions are required: %w", perrors.ErrValidation)
	}

	a := &Agent{
		ID:           uuid.New().String(),
		UserID:       caller.ID,
		Name:         in.Name,
		Instructions: in.Instructions,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("agent created",
		logging.F("agent_id", a.ID),
		logging.F("user_id", caller.ID))

	return a, nil
}

// GetOne fetches an agent by id. Agent reads are global, not owner-scoped;
// meetings reference agents across users.
func (s *Service) GetOne(ctx context.Context, caller identity.Caller, id string) (*Agent, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required: %w", perrors.ErrValidation)
	}
	return s.store.GetByID(ctx, id)
}

// GetMany returns all agents.
func (s *Service) GetMany(ctx context.Context, caller identity.Caller) ([]*Agent, error) {
	return s.store.List(ctx)
}

// Update replaces an agent's name and instructions. Only the owner can
// mutate; a wrong owner or missing id both surface as not found.
func (s *Service) Update(ctx context.Context, caller identity.Caller, in UpdateInput) (*Agent, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("id is required: %w", perrors.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", perrors.ErrValidation)
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return nil, fmt.Errorf("instructions are required: %w", perrors.ErrValidation)
	}

	return s.store.Update(ctx, caller.ID, in)
}
