package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

// Repository provides database operations for agents.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a new agent repository.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "agent_repository")),
	}
}

// Create inserts a new agent.
func (r *Repository) Create(ctx context.Context, a *Agent) error {
	query := `
		INSERT INTO agents (
			id, user_id, name, instructions,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		a.ID,
		a.UserID,
		a.Name,
		a.Instructions,
	).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	r.logger.Debug("Agent created",
		logging.F("id", a.ID),
		logging.F("name", a.Name))

	return nil
}

// GetByID retrieves an agent by id. Reads are not scoped to the owner: every
// authenticated user may resolve any agent, which is what allows meetings to
// reference shared personas.
func (r *Repository) GetByID(ctx context.Context, id string) (*Agent, error) {
	query := `
		SELECT id, user_id, name, instructions, created_at, updated_at
		FROM agents
		WHERE id = $1
	`

	a := &Agent{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Instructions,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return a, nil
}

// List returns all agents, newest first.
func (r *Repository) List(ctx context.Context) ([]*Agent, error) {
	query := `
		SELECT id, user_id, name, instructions, created_at, updated_at
		FROM agents
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		a := &Agent{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Instructions,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Update replaces an agent's mutable fields. The predicate carries both id and
// owner so the write is a single atomic conditional statement.
func (r *Repository) Update(ctx context.Context, userID string, in UpdateInput) (*Agent, error) {
	query := `
		UPDATE agents SET
			name = $3,
			instructions = $4,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, instructions, created_at, updated_at
	`

	a := &Agent{}
	err := r.pool.QueryRow(ctx, query,
		in.ID,
		userID,
		in.Name,
		in.Instructions,
	).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Instructions,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return a, nil
}
