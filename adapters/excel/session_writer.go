package excel

import (
	"fmt"

	"agencywheel/internal/errors"
	"agencywheel/models"
	"agencywheel/ports"

	"github.com/xuri/excelize/v2"
)

// SessionWriter renders a session into an .xlsx workbook with a summary
// sheet and one row per trial.
type SessionWriter struct{}

// NewSessionWriter creates a SessionWriter
func NewSessionWriter() ports.WorkbookWriter {
	return &SessionWriter{}
}

var trialHeaders = []string{
	"ordinal", "mini_block", "sub_block", "probability", "outcome_win",
	"agency", "selected_wheel", "is_approved", "confidence", "satisfaction",
	"responded_at",
}

// WriteSession writes the workbook to path
func (w *SessionWriter) WriteSession(path string, session *models.ExperimentSession, summary models.SessionSummary, trials []*models.TrialRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, session, summary); err != nil {
		return err
	}
	if err := w.writeTrialsSheet(f, trials); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

func (w *SessionWriter) writeSummarySheet(f *excelize.File, session *models.ExperimentSession, summary models.SessionSummary) error {
	sheet := "Sheet1"
	if err := f.SetSheetName(sheet, "Summary"); err != nil {
		return errors.Wrap(err, "failed to rename summary sheet")
	}
	sheet = "Summary"

	rows := [][]interface{}{
		{"participant_id", summary.ParticipantID},
		{"session_id", session.ID.String()},
		{"completed_trials", summary.CompletedTrials},
		{"average_confidence", summary.AverageConfidence},
		{"average_satisfaction", summary.AverageSatisfaction},
		{"agency_rate", summary.AgencyRate},
		{"win_rate", summary.WinRate},
		{"fallback_matrix", session.FallbackMatrix},
		{"completed_at", summary.CompletedAt},
	}
	for i, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, i+1)
			if err != nil {
				return errors.Wrap(err, "bad summary cell coordinates")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrap(err, "failed to write summary cell")
			}
		}
	}
	return nil
}

func (w *SessionWriter) writeTrialsSheet(f *excelize.File, trials []*models.TrialRecord) error {
	sheet := "Trials"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, "failed to create trials sheet")
	}

	for i, h := range trialHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return errors.Wrap(err, "bad header cell coordinates")
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrap(err, "failed to write trials header")
		}
	}

	for rowIdx, trial := range trials {
		values := []interface{}{
			trial.Ordinal, trial.MiniBlock, trial.SubBlock, trial.Probability,
			trial.OutcomeWin, trial.Agency,
			nullableInt(trial.SelectedWheel.Int64, trial.SelectedWheel.Valid),
			nullableBool(trial.IsApproved.Bool, trial.IsApproved.Valid),
			nullableInt(trial.Confidence.Int64, trial.Confidence.Valid),
			nullableInt(trial.Satisfaction.Int64, trial.Satisfaction.Valid),
			nullableTime(trial),
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, rowIdx+2)
			if err != nil {
				return errors.Wrap(err, "bad trial cell coordinates")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to write trial row %d", trial.Ordinal)
			}
		}
	}
	return nil
}

func nullableInt(v int64, valid bool) interface{} {
	if !valid {
		return ""
	}
	return v
}

func nullableBool(v bool, valid bool) interface{} {
	if !valid {
		return ""
	}
	return v
}

func nullableTime(trial *models.TrialRecord) interface{} {
	if trial.RespondedAt == nil {
		return ""
	}
	return fmt.Sprintf("%d", trial.RespondedAt.UnixMilli())
}
