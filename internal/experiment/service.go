package experiment

import (
	"context"
	"time"

	"agencywheel/domain/sequence"
	"agencywheel/internal"
	"agencywheel/internal/config"
	"agencywheel/internal/errors"
	"agencywheel/models"
	"agencywheel/ports"

	"github.com/google/uuid"
)

// Service drives the experiment session lifecycle: it builds the
// predetermined trial schedule at session start, serves trials in order,
// draws approvals, and records participant responses write-once.
type Service struct {
	sessions ports.SessionRepository
	trials   ports.TrialRepository
	rng      ports.RNGPort
	summary  ports.SummaryPort
	cfg      config.ExperimentConfig
	logger   *internal.Logger
}

// NewService wires the experiment service
func NewService(sessions ports.SessionRepository, trials ports.TrialRepository, rng ports.RNGPort, summary ports.SummaryPort, cfg config.ExperimentConfig, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Service{
		sessions: sessions,
		trials:   trials,
		rng:      rng,
		summary:  summary,
		cfg:      cfg,
		logger:   logger,
	}
}

// StartSession builds and persists a new session for a participant: the
// outcome matrix, the shuffled trial schedule, and the session row.
func (s *Service) StartSession(ctx context.Context, participantID string, metadata map[string]interface{}) (*models.ExperimentSession, error) {
	if participantID == "" {
		return nil, errors.InvalidInput("participant id is required")
	}

	sessionID := uuid.New()
	seed := time.Now().UnixNano()
	stream, err := s.rng.SessionStream(ctx, sessionID.String(), seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session random stream")
	}

	seq := sequence.BuildTrialSequence(stream, s.cfg.MiniBlocks)
	if seq.FallbackUsed {
		// Degraded, non-random schedule. Not an error, but the session is
		// flagged so analysts can exclude or audit it.
		s.logger.Warn("matrix generation exhausted its attempt budget for session %s; fallback matrix in use", sessionID)
	}

	session := models.NewExperimentSession(sessionID, participantID, metadata)
	session.MiniBlocks = s.cfg.MiniBlocks
	session.Matrix = models.OutcomeGrid(seq.Matrix)
	session.FallbackMatrix = seq.FallbackUsed
	session.Seed = seed

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	flat := seq.Flatten()
	records := make([]*models.TrialRecord, len(flat))
	now := time.Now()
	for i, trial := range flat {
		records[i] = &models.TrialRecord{
			ID:          uuid.New(),
			SessionID:   sessionID,
			Ordinal:     i + 1,
			MiniBlock:   trial.MiniBlock,
			SubBlock:    string(trial.SubBlock),
			Probability: trial.Probability,
			OutcomeWin:  trial.OutcomeWin,
			Agency:      trial.Agency,
			CreatedAt:   now,
		}
	}
	if err := s.trials.CreateTrials(ctx, records); err != nil {
		return nil, err
	}

	s.logger.Info("session %s started for participant %s (%d trials)", sessionID, participantID, len(records))
	return session, nil
}

// GetSession returns a session by ID
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.ExperimentSession, error) {
	return s.sessions.GetSession(ctx, sessionID)
}

// SessionTrials returns a session's trials in presentation order
func (s *Service) SessionTrials(ctx context.Context, sessionID uuid.UUID) ([]*models.TrialRecord, error) {
	return s.trials.GetSessionTrials(ctx, sessionID)
}

// NextTrial returns the next unrecorded trial of a session, in
// presentation order. Returns a NOT_FOUND error when the session has no
// pending trials left.
func (s *Service) NextTrial(ctx context.Context, sessionID uuid.UUID) (*models.TrialRecord, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.trials.NextPendingTrial(ctx, sessionID)
}

// Response is the participant-side input for one trial.
type Response struct {
	SelectedWheel int `json:"selectedWheel"`
	Confidence    int `json:"confidenceRating"`
	Satisfaction  int `json:"satisfactionRating"`
}

// TrialResult reports the server-side resolution of a recorded trial.
type TrialResult struct {
	Ordinal         int  `json:"ordinal"`
	IsApproved      bool `json:"isApproved"`
	AssignedWheel   int  `json:"assignedWheel"`
	OutcomeWin      bool `json:"outcomeWin"`
	SessionComplete bool `json:"sessionComplete"`
}

// RecordResponse validates and records one participant response, drawing
// the approval outcome server-side. Trials must be answered in
// presentation order and each exactly once; the final response completes
// the session.
func (s *Service) RecordResponse(ctx context.Context, sessionID uuid.UUID, ordinal int, resp Response) (*TrialResult, error) {
	if resp.SelectedWheel < 0 || resp.SelectedWheel >= sequence.NumWheels {
		return nil, errors.InvalidInput("selected wheel out of range")
	}
	if resp.Confidence < 0 || resp.Confidence > 100 {
		return nil, errors.InvalidInput("confidence rating out of range")
	}
	if resp.Satisfaction < 0 || resp.Satisfaction > 100 {
		return nil, errors.InvalidInput("satisfaction rating out of range")
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionStateRunning {
		return nil, errors.ValidationError("session is not running")
	}

	trial, err := s.trials.NextPendingTrial(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if trial.Ordinal != ordinal {
		return nil, errors.ValidationError("trials must be answered in presentation order")
	}

	assignment, err := s.drawAssignment(ctx, session, trial, resp.SelectedWheel)
	if err != nil {
		return nil, err
	}

	record := models.TrialResponse{
		SelectedWheel: resp.SelectedWheel,
		IsApproved:    assignment.Approved,
		Confidence:    resp.Confidence,
		Satisfaction:  resp.Satisfaction,
		Timestamp:     time.Now().UnixMilli(),
	}
	if err := s.trials.RecordResponse(ctx, sessionID, ordinal, record); err != nil {
		return nil, err
	}

	result := &TrialResult{
		Ordinal:       ordinal,
		IsApproved:    assignment.Approved,
		AssignedWheel: assignment.Wheel,
		OutcomeWin:    trial.OutcomeWin,
	}

	pending, err := s.trials.CountPending(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		if err := s.sessions.UpdateSessionState(ctx, sessionID, models.SessionStateComplete); err != nil {
			return nil, err
		}
		result.SessionComplete = true
		s.logger.Info("session %s complete", sessionID)
	}
	return result, nil
}

// wheelAssignment is the outcome of the approval draw.
type wheelAssignment struct {
	Wheel    int
	Approved bool
}

// drawAssignment resolves which wheel actually spins. Agency trials
// approve the participant's choice with the configured rate and reroute
// vetoed choices to a random other wheel; no-agency trials always assign
// a system-chosen wheel.
func (s *Service) drawAssignment(ctx context.Context, session *models.ExperimentSession, trial *models.TrialRecord, selected int) (wheelAssignment, error) {
	stream, err := s.rng.SessionStream(ctx, session.ID.String()+"/approval", session.Seed+int64(trial.Ordinal))
	if err != nil {
		return wheelAssignment{}, errors.Wrap(err, "failed to open approval random stream")
	}

	if !trial.Agency {
		return wheelAssignment{Wheel: stream.Intn(sequence.NumWheels)}, nil
	}
	if stream.Float64() < s.cfg.ApprovalRate {
		return wheelAssignment{Wheel: selected, Approved: true}, nil
	}
	// Veto: pick uniformly among the other wheels.
	other := stream.Intn(sequence.NumWheels - 1)
	if other >= selected {
		other++
	}
	return wheelAssignment{Wheel: other}, nil
}

// WheelRender is the render support payload for one trial: the shared
// segment pattern and a landing angle per displayed wheel.
type WheelRender struct {
	Probability float64                     `json:"probability"`
	Pattern     []bool                      `json:"pattern"`
	Angles      [sequence.NumWheels]float64 `json:"angles"`
}

// RenderWheels returns the deterministic segment pattern for a trial's
// tier plus an animated landing angle per wheel that stops on the
// predetermined outcome.
func (s *Service) RenderWheels(ctx context.Context, sessionID uuid.UUID, ordinal int) (*WheelRender, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	trials, err := s.trials.GetSessionTrials(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var trial *models.TrialRecord
	for _, t := range trials {
		if t.Ordinal == ordinal {
			trial = t
			break
		}
	}
	if trial == nil {
		return nil, errors.NotFound("trial")
	}

	stream, err := s.rng.SessionStream(ctx, session.ID.String()+"/spin", session.Seed+int64(ordinal))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open spin random stream")
	}

	pattern := sequence.SegmentPattern(trial.Probability)
	render := &WheelRender{Probability: trial.Probability, Pattern: pattern}
	for i, offset := range sequence.WheelOffsets {
		angle, ok := sequence.AnimatedLandingAngle(pattern, trial.OutcomeWin, offset, stream)
		if !ok {
			return nil, errors.InternalError("no segment displays the predetermined outcome")
		}
		render.Angles[i] = angle
	}
	return render, nil
}
