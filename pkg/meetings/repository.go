package meetings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

// meetingColumns is the column list shared by every meeting select.
const meetingColumns = `
	m.id, m.user_id, m.agent_id, m.name, m.status, m.provision_state,
	m.started_at, m.ended_at, m.transcript_url, m.recording_url, m.summary,
	m.created_at, m.updated_at`

// joinedColumns adds the agent columns and the derived duration.
const joinedColumns = meetingColumns + `,
	a.id, a.user_id, a.name, a.instructions, a.created_at, a.updated_at,
	EXTRACT(EPOCH FROM (m.ended_at - m.started_at)) AS duration`

// Repository provides database operations for meetings.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a new meeting repository.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "meeting_repository")),
	}
}

// Create inserts a new meeting.
func (r *Repository) Create(ctx context.Context, m *Meeting) error {
	query := `
		INSERT INTO meetings (
			id, user_id, agent_id, name, status, provision_state,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		m.ID,
		m.UserID,
		m.AgentID,
		m.Name,
		m.Status,
		m.ProvisionState,
	).Scan(&m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	r.logger.Debug("Meeting created",
		logging.F("id", m.ID),
		logging.F("agent_id", m.AgentID))

	return nil
}

// GetByIDForUser retrieves a meeting joined to its agent. Both the id and the
// owner predicate are mandatory; a wrong owner is indistinguishable from a
// missing row.
func (r *Repository) GetByIDForUser(ctx context.Context, id, userID string) (*MeetingWithAgent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM meetings m
		INNER JOIN agents a ON a.id = m.agent_id
		WHERE m.id = $1 AND m.user_id = $2
	`, joinedColumns)

	row := r.pool.QueryRow(ctx, query, id, userID)
	mw, err := scanMeetingWithAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return mw, nil
}

// GetByID retrieves a meeting by id alone. Used by the reconciler, which acts
// on behalf of the system rather than a caller.
func (r *Repository) GetByID(ctx context.Context, id string) (*Meeting, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM meetings m
		WHERE m.id = $1
	`, meetingColumns)

	m := &Meeting{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.UserID, &m.AgentID, &m.Name, &m.Status, &m.ProvisionState,
		&m.StartedAt, &m.EndedAt, &m.TranscriptURL, &m.RecordingURL, &m.Summary,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return m, nil
}

// listConditions builds the WHERE clause shared by List and Count. The owner
// predicate always comes first; filters are appended when set.
func listConditions(userID string, f Filter) ([]string, []any) {
	conditions := []string{"m.user_id = $1"}
	args := []any{userID}
	argIdx := 2

	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("m.name ILIKE '%%' || $%d || '%%'", argIdx))
		args = append(args, f.Search)
		argIdx++
	}
	if f.AgentID != "" {
		conditions = append(conditions, fmt.Sprintf("m.agent_id = $%d", argIdx))
		args = append(args, f.AgentID)
		argIdx++
	}
	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", argIdx))
		args = append(args, f.Status)
		argIdx++
	}

	return conditions, args
}

// List returns one page of the caller's meetings joined to their agents,
// ordered by created_at descending with id descending as the tiebreak so
// pagination stays stable under concurrent inserts.
func (r *Repository) List(ctx context.Context, userID string, f Filter, limit, offset int) ([]*MeetingWithAgent, error) {
	conditions, args := listConditions(userID, f)

	query := fmt.Sprintf(`
		SELECT %s
		FROM meetings m
		INNER JOIN agents a ON a.id = m.agent_id
		WHERE %s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT %d OFFSET %d
	`, joinedColumns, strings.Join(conditions, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var items []*MeetingWithAgent
	for rows.Next() {
		mw, err := scanMeetingWithAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		items = append(items, mw)
	}
	return items, rows.Err()
}

// Count returns the number of the caller's meetings matching the filter.
func (r *Repository) Count(ctx context.Context, userID string, f Filter) (int64, error) {
	conditions, args := listConditions(userID, f)

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM meetings m
		INNER JOIN agents a ON a.id = m.agent_id
		WHERE %s
	`, strings.Join(conditions, " AND "))

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count meetings: %w", err)
	}
	return total, nil
}

// Update replaces a meeting's mutable fields. The id+owner predicate makes
// this a single atomic conditional write; zero rows means not found.
func (r *Repository) Update(ctx context.Context, userID string, in UpdateInput) (*Meeting, error) {
	query := `
		UPDATE meetings SET
			name = $3,
			agent_id = $4,
			status = $5,
			started_at = $6,
			ended_at = $7,
			transcript_url = $8,
			recording_url = $9,
			summary = $10,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, agent_id, name, status, provision_state,
			started_at, ended_at, transcript_url, recording_url, summary,
			created_at, updated_at
	`

	m := &Meeting{}
	err := r.pool.QueryRow(ctx, query,
		in.ID,
		userID,
		in.Name,
		in.AgentID,
		in.Status,
		in.StartedAt,
		in.EndedAt,
		in.TranscriptURL,
		in.RecordingURL,
		in.Summary,
	).Scan(
		&m.ID, &m.UserID, &m.AgentID, &m.Name, &m.Status, &m.ProvisionState,
		&m.StartedAt, &m.EndedAt, &m.TranscriptURL, &m.RecordingURL, &m.Summary,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}
	return m, nil
}

// Delete removes a meeting and returns its prior state. The id+owner
// predicate makes this a single atomic conditional delete.
func (r *Repository) Delete(ctx context.Context, id, userID string) (*Meeting, error) {
	query := `
		DELETE FROM meetings
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, agent_id, name, status, provision_state,
			started_at, ended_at, transcript_url, recording_url, summary,
			created_at, updated_at
	`

	m := &Meeting{}
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&m.ID, &m.UserID, &m.AgentID, &m.Name, &m.Status, &m.ProvisionState,
		&m.StartedAt, &m.EndedAt, &m.TranscriptURL, &m.RecordingURL, &m.Summary,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete meeting: %w", err)
	}
	return m, nil
}

// DeleteAny removes a meeting regardless of owner. Used only for the
// compensating delete during a failed create, before the meeting is ever
// returned to a caller.
func (r *Repository) DeleteAny(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM meetings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return perrors.ErrNotFound
	}
	return nil
}

// SetProvisionState transitions the provisioning saga substate.
func (r *Repository) SetProvisionState(ctx context.Context, id string, state ProvisionState) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE meetings SET provision_state = $2, updated_at = NOW() WHERE id = $1",
		id, state,
	)
	if err != nil {
		return fmt.Errorf("failed to set provision state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return perrors.ErrNotFound
	}
	return nil
}

// ListStuckPending returns meetings that have sat in pending provisioning
// since before the cutoff. The reconciler uses this as a safety net for
// retry-queue entries lost to a crash.
func (r *Repository) ListStuckPending(ctx context.Context, cutoff time.Time, limit int) ([]*Meeting, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM meetings m
		WHERE m.provision_state = 'pending' AND m.created_at < $1
		ORDER BY m.created_at
		LIMIT $2
	`, meetingColumns)

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m := &Meeting{}
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.AgentID, &m.Name, &m.Status, &m.ProvisionState,
			&m.StartedAt, &m.EndedAt, &m.TranscriptURL, &m.RecordingURL, &m.Summary,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// scanMeetingWithAgent scans the joined column set.
func scanMeetingWithAgent(row pgx.Row) (*MeetingWithAgent, error) {
	mw := &MeetingWithAgent{}
	err := row.Scan(
		&mw.ID, &mw.UserID, &mw.AgentID, &mw.Name, &mw.Status, &mw.ProvisionState,
		&mw.StartedAt, &mw.EndedAt, &mw.TranscriptURL, &mw.RecordingURL, &mw.Summary,
		&mw.CreatedAt, &mw.UpdatedAt,
		&mw.Agent.ID, &mw.Agent.UserID, &mw.Agent.Name, &mw.Agent.Instructions,
		&mw.Agent.CreatedAt, &mw.Agent.UpdatedAt,
		&mw.Duration,
	)
	if err != nil {
		return nil, err
	}
	return mw, nil
}
