package ports

import (
	"agencywheel/models"
)

// WorkbookWriter renders a session and its trials into a spreadsheet file
type WorkbookWriter interface {
	WriteSession(path string, session *models.ExperimentSession, summary models.SessionSummary, trials []*models.TrialRecord) error
}
