package experiment

import (
	"context"

	"agencywheel/models"

	"github.com/google/uuid"
)

// ExportTrial is one trial row of the session export document.
type ExportTrial struct {
	MiniBlock        int     `json:"miniBlock"`
	SubBlock         string  `json:"subBlock"`
	Probability      float64 `json:"probability"`
	OutcomeWin       bool    `json:"outcomeWin"`
	Agency           bool    `json:"agency"`
	SelectedWheel    int     `json:"selectedWheel"`
	IsApproved       bool    `json:"isApproved"`
	ConfidenceRating int     `json:"confidenceRating"`
	Timestamp        int64   `json:"timestamp"`
}

// SessionExport is the complete persisted/exported shape of a session:
// aggregate summary, the recorded trials, and the outcome matrix rows.
type SessionExport struct {
	Summary    models.SessionSummary `json:"summary"`
	Trials     []ExportTrial         `json:"trials"`
	MiniBlocks [][]int               `json:"miniBlocks"`
}

// Export assembles the export document for a session. Only recorded
// trials appear in the trials list.
func (s *Service) Export(ctx context.Context, sessionID uuid.UUID) (*SessionExport, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	trials, err := s.trials.GetSessionTrials(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := s.summary.Summarize(session, trials)
	if err != nil {
		return nil, err
	}

	export := &SessionExport{
		Summary:    summary,
		Trials:     make([]ExportTrial, 0, len(trials)),
		MiniBlocks: session.Matrix.Matrix().Rows(),
	}
	for _, trial := range trials {
		if !trial.Recorded() {
			continue
		}
		export.Trials = append(export.Trials, ExportTrial{
			MiniBlock:        trial.MiniBlock,
			SubBlock:         trial.SubBlock,
			Probability:      trial.Probability,
			OutcomeWin:       trial.OutcomeWin,
			Agency:           trial.Agency,
			SelectedWheel:    int(trial.SelectedWheel.Int64),
			IsApproved:       trial.IsApproved.Bool,
			ConfidenceRating: int(trial.Confidence.Int64),
			Timestamp:        trial.RespondedAt.UnixMilli(),
		})
	}
	return export, nil
}
