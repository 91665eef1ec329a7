package postgres

import (
	"context"
	"database/sql"
	"time"

	"agencywheel/internal/errors"
	"agencywheel/models"
	"agencywheel/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// CreateSession inserts a new session row
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, session *models.ExperimentSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO experiment_sessions (id, participant_id, state, mini_blocks, matrix, fallback_matrix, seed, started_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, session.ID, session.ParticipantID, session.State, session.MiniBlocks, session.Matrix,
		session.FallbackMatrix, session.Seed, session.StartedAt, session.Metadata,
		session.CreatedAt, session.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, "failed to insert session")
	}
	return nil
}

// GetSession retrieves a session by ID
func (r *SessionRepositoryImpl) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ExperimentSession, error) {
	var session models.ExperimentSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, participant_id, state, mini_blocks, matrix, fallback_matrix, seed, started_at, completed_at, metadata, created_at, updated_at
		FROM experiment_sessions
		WHERE id = $1
	`, sessionID)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("session")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	return &session, nil
}

// UpdateSessionState transitions a session state
func (r *SessionRepositoryImpl) UpdateSessionState(ctx context.Context, sessionID uuid.UUID, state models.SessionState) error {
	var completedAt interface{}
	if state == models.SessionStateComplete || state == models.SessionStateError {
		completedAt = time.Now()
	} else {
		completedAt = nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE experiment_sessions
		SET state = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1
	`, sessionID, state, completedAt)
	if err != nil {
		return errors.Wrap(err, "failed to update session state")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("session")
	}
	return nil
}

// ListSessionsByState returns sessions in the given state, newest first
func (r *SessionRepositoryImpl) ListSessionsByState(ctx context.Context, state models.SessionState, limit int) ([]*models.ExperimentSession, error) {
	query := `
		SELECT id, participant_id, state, mini_blocks, matrix, fallback_matrix, seed, started_at, completed_at, metadata, created_at, updated_at
		FROM experiment_sessions
		WHERE state = $1
		ORDER BY started_at DESC
	`
	args := []interface{}{state}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var sessions []*models.ExperimentSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	return sessions, nil
}
