package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"agencywheel/domain/sequence"

	"github.com/google/uuid"
)

// JSONBMap is a custom type for PostgreSQL JSONB columns that maps to map[string]interface{}
type JSONBMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONBMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONBMap)
		return nil
	}

	if len(bytes) == 0 {
		*j = make(JSONBMap)
		return nil
	}

	result := make(JSONBMap)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// OutcomeGrid stores a session's outcome matrix in a JSONB column.
type OutcomeGrid sequence.OutcomeMatrix

// Value implements driver.Valuer interface
func (g OutcomeGrid) Value() (driver.Value, error) {
	return json.Marshal(sequence.OutcomeMatrix(g).Rows())
}

// Scan implements sql.Scanner interface
func (g *OutcomeGrid) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported outcome grid column type %T", value)
	}

	var rows [][]int
	if err := json.Unmarshal(bytes, &rows); err != nil {
		return err
	}
	if len(rows) != sequence.NumTiers {
		return fmt.Errorf("outcome grid has %d rows, want %d", len(rows), sequence.NumTiers)
	}
	for r, row := range rows {
		if len(row) != sequence.NumMiniBlocks {
			return fmt.Errorf("outcome grid row %d has %d columns, want %d", r, len(row), sequence.NumMiniBlocks)
		}
		copy(g[r][:], row)
	}
	return nil
}

// Matrix returns the grid as the domain matrix type.
func (g OutcomeGrid) Matrix() sequence.OutcomeMatrix {
	return sequence.OutcomeMatrix(g)
}

// SessionState tracks an experiment session through its lifecycle
type SessionState string

const (
	SessionStateRunning  SessionState = "running"
	SessionStateComplete SessionState = "complete"
	SessionStateError    SessionState = "error"
)

// ExperimentSession is one participant's run through the experiment.
type ExperimentSession struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	ParticipantID string       `json:"participant_id" db:"participant_id"`
	State         SessionState `json:"state" db:"state"`
	MiniBlocks    int          `json:"mini_blocks" db:"mini_blocks"`
	Matrix        OutcomeGrid  `json:"matrix" db:"matrix"`
	// FallbackMatrix flags a session whose matrix came from the hardcoded
	// fallback instead of random generation (integrity audit signal).
	FallbackMatrix bool       `json:"fallback_matrix" db:"fallback_matrix"`
	Seed           int64      `json:"seed" db:"seed"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Metadata       JSONBMap   `json:"metadata" db:"metadata"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewExperimentSession creates a running session for a participant
func NewExperimentSession(id uuid.UUID, participantID string, metadata map[string]interface{}) *ExperimentSession {
	now := time.Now()
	jsonbMetadata := JSONBMap(metadata)
	if jsonbMetadata == nil {
		jsonbMetadata = make(JSONBMap)
	}
	return &ExperimentSession{
		ID:            id,
		ParticipantID: participantID,
		State:         SessionStateRunning,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
		Metadata:      jsonbMetadata,
	}
}

// TrialRecord is one trial row: the predetermined design-side fields plus
// the participant's response, which is filled in exactly once.
type TrialRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SessionID   uuid.UUID `json:"session_id" db:"session_id"`
	Ordinal     int       `json:"ordinal" db:"ordinal"` // 1-based presentation order
	MiniBlock   int       `json:"mini_block" db:"mini_block"`
	SubBlock    string    `json:"sub_block" db:"sub_block"`
	Probability float64   `json:"probability" db:"probability"`
	OutcomeWin  bool      `json:"outcome_win" db:"outcome_win"`
	Agency      bool      `json:"agency" db:"agency"`

	SelectedWheel sql.NullInt64 `json:"selected_wheel" db:"selected_wheel"`
	IsApproved    sql.NullBool  `json:"is_approved" db:"is_approved"`
	Confidence    sql.NullInt64 `json:"confidence" db:"confidence"`
	Satisfaction  sql.NullInt64 `json:"satisfaction" db:"satisfaction"`
	RespondedAt   *time.Time    `json:"responded_at,omitempty" db:"responded_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Recorded reports whether the participant's response has been captured.
func (t *TrialRecord) Recorded() bool {
	return t.RespondedAt != nil
}

// TrialResponse carries one participant response to be recorded.
type TrialResponse struct {
	SelectedWheel int   `json:"selectedWheel"`
	IsApproved    bool  `json:"isApproved"`
	Confidence    int   `json:"confidenceRating"`
	Satisfaction  int   `json:"satisfactionRating"`
	Timestamp     int64 `json:"timestamp"` // epoch millis
}

// SessionSummary aggregates a completed session for export.
type SessionSummary struct {
	ParticipantID       string  `json:"participantId"`
	CompletedTrials     int     `json:"completedTrials"`
	AverageConfidence   float64 `json:"averageConfidence"`
	AverageSatisfaction float64 `json:"averageSatisfaction"`
	AgencyRate          float64 `json:"agencyRate"`
	WinRate             float64 `json:"winRate"`
	CompletedAt         string  `json:"completedAt"` // ISO 8601
}
