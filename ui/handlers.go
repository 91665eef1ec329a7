package ui

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"agencywheel/internal/errors"
	"agencywheel/internal/experiment"
	"agencywheel/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TrialView is the participant-facing shape of a trial. The predetermined
// outcome stays server-side until the response is recorded.
type TrialView struct {
	Ordinal     int     `json:"ordinal"`
	MiniBlock   int     `json:"miniBlock"`
	SubBlock    string  `json:"subBlock"`
	Probability float64 `json:"probability"`
	Agency      bool    `json:"agency"`
}

func trialView(trial *models.TrialRecord) TrialView {
	return TrialView{
		Ordinal:     trial.Ordinal,
		MiniBlock:   trial.MiniBlock,
		SubBlock:    trial.SubBlock,
		Probability: trial.Probability,
		Agency:      trial.Agency,
	}
}

type createSessionRequest struct {
	ParticipantID string                 `json:"participantId"`
	Metadata      map[string]interface{} `json:"metadata"`
}

type createSessionResponse struct {
	Session    *models.ExperimentSession `json:"session"`
	FirstTrial TrialView                 `json:"firstTrial"`
}

func (a *App) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, errors.InvalidInput("invalid request body"))
		return
	}

	session, err := a.svc.StartSession(r.Context(), req.ParticipantID, req.Metadata)
	if err != nil {
		a.writeError(w, err)
		return
	}
	first, err := a.svc.NextTrial(r.Context(), session.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, createSessionResponse{
		Session:    session,
		FirstTrial: trialView(first),
	})
}

func (a *App) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.sessionID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	session, err := a.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, session)
}

func (a *App) handleNextTrial(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.sessionID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	trial, err := a.svc.NextTrial(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, trialView(trial))
}

func (a *App) handleRecordResponse(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.sessionID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	ordinal, err := a.ordinal(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var resp experiment.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		a.writeError(w, errors.InvalidInput("invalid request body"))
		return
	}

	result, err := a.svc.RecordResponse(r.Context(), sessionID, ordinal, resp)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *App) handleRenderWheels(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.sessionID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	ordinal, err := a.ordinal(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	render, err := a.svc.RenderWheels(r.Context(), sessionID, ordinal)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, render)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.sessionID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	export, err := a.svc.Export(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, export)
}

func (a *App) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	sessionID, err := a.sessionID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	session, err := a.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	export, err := a.svc.Export(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	trials, err := a.svc.SessionTrials(r.Context(), sessionID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	dir, err := os.MkdirTemp("", "agencywheel-export")
	if err != nil {
		a.writeError(w, errors.Wrap(err, "failed to stage workbook"))
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, sessionID.String()+".xlsx")
	if err := a.workbook.WriteSession(path, session, export.Summary, trials); err != nil {
		a.writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+sessionID.String()+".xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) sessionID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.InvalidInput("invalid session id")
	}
	return id, nil
}

func (a *App) ordinal(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "ordinal")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.InvalidInput("invalid trial ordinal")
	}
	return n, nil
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeValidationError:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}
	a.writeJSON(w, status, map[string]string{"error": err.Error(), "code": code})
}
