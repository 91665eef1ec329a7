package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"agencywheel/internal"
	"agencywheel/internal/errors"
	"agencywheel/models"
	"agencywheel/ports"

	"golang.org/x/sync/semaphore"
)

// BatchExporter writes the JSON and workbook artifacts for every
// completed session, with bounded concurrency.
type BatchExporter struct {
	svc      *Service
	workbook ports.WorkbookWriter
	sem      *semaphore.Weighted
	logger   *internal.Logger
}

// NewBatchExporter creates a BatchExporter. maxConcurrent bounds how many
// sessions are exported at once.
func NewBatchExporter(svc *Service, workbook ports.WorkbookWriter, maxConcurrent int64, logger *internal.Logger) *BatchExporter {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BatchExporter{
		svc:      svc,
		workbook: workbook,
		sem:      semaphore.NewWeighted(maxConcurrent),
		logger:   logger,
	}
}

// ExportCompleted exports every completed session into dir, one
// <session-id>.json and one <session-id>.xlsx each. Returns the number of
// sessions exported and the first error encountered, if any.
func (e *BatchExporter) ExportCompleted(ctx context.Context, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "failed to create export directory %s", dir)
	}

	sessions, err := e.svc.sessions.ListSessionsByState(ctx, models.SessionStateComplete, 0)
	if err != nil {
		return 0, err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		exported int
		firstErr error
	)
	for _, session := range sessions {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return exported, errors.Wrap(err, "export cancelled")
		}
		wg.Add(1)
		go func(session *models.ExperimentSession) {
			defer wg.Done()
			defer e.sem.Release(1)

			if err := e.exportOne(ctx, dir, session); err != nil {
				e.logger.Error("export of session %s failed: %v", session.ID, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			exported++
			mu.Unlock()
		}(session)
	}
	wg.Wait()
	return exported, firstErr
}

func (e *BatchExporter) exportOne(ctx context.Context, dir string, session *models.ExperimentSession) error {
	export, err := e.svc.Export(ctx, session.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode session export")
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("%s.json", session.ID))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", jsonPath)
	}

	trials, err := e.svc.trials.GetSessionTrials(ctx, session.ID)
	if err != nil {
		return err
	}
	xlsxPath := filepath.Join(dir, fmt.Sprintf("%s.xlsx", session.ID))
	if err := e.workbook.WriteSession(xlsxPath, session, export.Summary, trials); err != nil {
		return err
	}

	e.logger.Debug("exported session %s", session.ID)
	return nil
}
