package stats

import (
	"time"

	"agencywheel/models"
	"agencywheel/ports"

	"github.com/montanaflynn/stats"
)

// SummaryAdapter computes session export statistics
type SummaryAdapter struct{}

// NewSummaryAdapter creates a SummaryAdapter
func NewSummaryAdapter() ports.SummaryPort {
	return &SummaryAdapter{}
}

// Summarize aggregates the recorded trials of a session. Unrecorded
// trials contribute nothing: rates and averages cover completed trials
// only.
func (a *SummaryAdapter) Summarize(session *models.ExperimentSession, trials []*models.TrialRecord) (models.SessionSummary, error) {
	var confidence, satisfaction stats.Float64Data
	completed, agencyCount, winCount := 0, 0, 0

	for _, trial := range trials {
		if !trial.Recorded() {
			continue
		}
		completed++
		if trial.Agency {
			agencyCount++
		}
		if trial.OutcomeWin {
			winCount++
		}
		if trial.Confidence.Valid {
			confidence = append(confidence, float64(trial.Confidence.Int64))
		}
		if trial.Satisfaction.Valid {
			satisfaction = append(satisfaction, float64(trial.Satisfaction.Int64))
		}
	}

	summary := models.SessionSummary{
		ParticipantID:   session.ParticipantID,
		CompletedTrials: completed,
	}
	if completed > 0 {
		summary.AgencyRate = float64(agencyCount) / float64(completed)
		summary.WinRate = float64(winCount) / float64(completed)
	}
	if len(confidence) > 0 {
		mean, err := stats.Mean(confidence)
		if err != nil {
			return summary, err
		}
		summary.AverageConfidence = mean
	}
	if len(satisfaction) > 0 {
		mean, err := stats.Mean(satisfaction)
		if err != nil {
			return summary, err
		}
		summary.AverageSatisfaction = mean
	}
	if session.CompletedAt != nil {
		summary.CompletedAt = session.CompletedAt.UTC().Format(time.RFC3339)
	}
	return summary, nil
}
