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

// TrialRepositoryImpl implements TrialRepository for PostgreSQL
type TrialRepositoryImpl struct {
	db *sqlx.DB
}

// NewTrialRepository creates a new PostgreSQL trial repository
func NewTrialRepository(db *sqlx.DB) ports.TrialRepository {
	return &TrialRepositoryImpl{db: db}
}

// CreateTrials inserts a session's full schedule in one transaction
func (r *TrialRepositoryImpl) CreateTrials(ctx context.Context, trials []*models.TrialRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin trial insert")
	}
	defer tx.Rollback()

	for _, trial := range trials {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trial_records (id, session_id, ordinal, mini_block, sub_block, probability, outcome_win, agency, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, trial.ID, trial.SessionID, trial.Ordinal, trial.MiniBlock, trial.SubBlock,
			trial.Probability, trial.OutcomeWin, trial.Agency, trial.CreatedAt)
		if err != nil {
			return errors.Wrapf(err, "failed to insert trial %d", trial.Ordinal)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit trial insert")
	}
	return nil
}

// GetSessionTrials returns all trials for a session in ordinal order
func (r *TrialRepositoryImpl) GetSessionTrials(ctx context.Context, sessionID uuid.UUID) ([]*models.TrialRecord, error) {
	var trials []*models.TrialRecord
	err := r.db.SelectContext(ctx, &trials, `
		SELECT id, session_id, ordinal, mini_block, sub_block, probability, outcome_win, agency,
		       selected_wheel, is_approved, confidence, satisfaction, responded_at, created_at
		FROM trial_records
		WHERE session_id = $1
		ORDER BY ordinal
	`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session trials")
	}
	return trials, nil
}

// NextPendingTrial returns the lowest-ordinal unrecorded trial
func (r *TrialRepositoryImpl) NextPendingTrial(ctx context.Context, sessionID uuid.UUID) (*models.TrialRecord, error) {
	var trial models.TrialRecord
	err := r.db.GetContext(ctx, &trial, `
		SELECT id, session_id, ordinal, mini_block, sub_block, probability, outcome_win, agency,
		       selected_wheel, is_approved, confidence, satisfaction, responded_at, created_at
		FROM trial_records
		WHERE session_id = $1 AND responded_at IS NULL
		ORDER BY ordinal
		LIMIT 1
	`, sessionID)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pending trial")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load next trial")
	}
	return &trial, nil
}

// RecordResponse enriches one trial, write-once. The responded_at guard in
// the WHERE clause is what enforces the once-only invariant.
func (r *TrialRepositoryImpl) RecordResponse(ctx context.Context, sessionID uuid.UUID, ordinal int, response models.TrialResponse) error {
	respondedAt := time.UnixMilli(response.Timestamp)
	res, err := r.db.ExecContext(ctx, `
		UPDATE trial_records
		SET selected_wheel = $3, is_approved = $4, confidence = $5, satisfaction = $6, responded_at = $7
		WHERE session_id = $1 AND ordinal = $2 AND responded_at IS NULL
	`, sessionID, ordinal, response.SelectedWheel, response.IsApproved,
		response.Confidence, response.Satisfaction, respondedAt)
	if err != nil {
		return errors.Wrap(err, "failed to record response")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to confirm response write")
	}
	if n == 0 {
		// Either no such trial or it was already recorded; disambiguate.
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `
			SELECT EXISTS (SELECT 1 FROM trial_records WHERE session_id = $1 AND ordinal = $2)
		`, sessionID, ordinal); err != nil {
			return errors.Wrap(err, "failed to check trial existence")
		}
		if !exists {
			return errors.NotFound("trial")
		}
		return errors.ValidationError("trial response already recorded")
	}
	return nil
}

// CountPending returns the number of unrecorded trials for a session
func (r *TrialRepositoryImpl) CountPending(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM trial_records WHERE session_id = $1 AND responded_at IS NULL
	`, sessionID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pending trials")
	}
	return count, nil
}
