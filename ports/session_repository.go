package ports

import (
	"context"

	"agencywheel/models"

	"github.com/google/uuid"
)

// SessionRepository persists experiment sessions
type SessionRepository interface {
	// CreateSession inserts a new session row
	CreateSession(ctx context.Context, session *models.ExperimentSession) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ExperimentSession, error)

	// UpdateSessionState transitions a session; complete/error states also
	// stamp completed_at
	UpdateSessionState(ctx context.Context, sessionID uuid.UUID, state models.SessionState) error

	// ListSessionsByState returns sessions in the given state, newest first
	ListSessionsByState(ctx context.Context, state models.SessionState, limit int) ([]*models.ExperimentSession, error)
}
