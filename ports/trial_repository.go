package ports

import (
	"context"

	"agencywheel/models"

	"github.com/google/uuid"
)

// TrialRepository persists the predetermined trial schedule and the
// participant responses recorded against it
type TrialRepository interface {
	// CreateTrials inserts a session's full schedule in one batch
	CreateTrials(ctx context.Context, trials []*models.TrialRecord) error

	// GetSessionTrials returns all trials for a session in ordinal order
	GetSessionTrials(ctx context.Context, sessionID uuid.UUID) ([]*models.TrialRecord, error)

	// NextPendingTrial returns the lowest-ordinal unrecorded trial, or a
	// NOT_FOUND error when every trial has been recorded
	NextPendingTrial(ctx context.Context, sessionID uuid.UUID) (*models.TrialRecord, error)

	// RecordResponse enriches one trial with the participant response.
	// Recording is write-once: a second attempt on the same ordinal fails
	// with a VALIDATION_ERROR.
	RecordResponse(ctx context.Context, sessionID uuid.UUID, ordinal int, response models.TrialResponse) error

	// CountPending returns the number of unrecorded trials for a session
	CountPending(ctx context.Context, sessionID uuid.UUID) (int, error)
}
