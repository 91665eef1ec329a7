package ports

import (
	"agencywheel/models"
)

// SummaryPort computes the aggregate statistics of a session's recorded
// trials for the export document
type SummaryPort interface {
	Summarize(session *models.ExperimentSession, trials []*models.TrialRecord) (models.SessionSummary, error)
}
