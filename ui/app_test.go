package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	appstats "agencywheel/adapters/stats"
	"agencywheel/internal/config"
	"agencywheel/internal/errors"
	"agencywheel/internal/experiment"
	"agencywheel/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal in-memory repositories for exercising the HTTP handlers.

type memSessions struct {
	byID map[uuid.UUID]*models.ExperimentSession
}

func (m *memSessions) CreateSession(_ context.Context, s *models.ExperimentSession) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) GetSession(_ context.Context, id uuid.UUID) (*models.ExperimentSession, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("session")
	}
	return s, nil
}

func (m *memSessions) UpdateSessionState(_ context.Context, id uuid.UUID, state models.SessionState) error {
	s, ok := m.byID[id]
	if !ok {
		return errors.NotFound("session")
	}
	s.State = state
	now := time.Now()
	s.CompletedAt = &now
	return nil
}

func (m *memSessions) ListSessionsByState(_ context.Context, state models.SessionState, _ int) ([]*models.ExperimentSession, error) {
	var out []*models.ExperimentSession
	for _, s := range m.byID {
		if s.State == state {
			out = append(out, s)
		}
	}
	return out, nil
}

type memTrials struct {
	bySession map[uuid.UUID][]*models.TrialRecord
}

func (m *memTrials) CreateTrials(_ context.Context, trials []*models.TrialRecord) error {
	for _, t := range trials {
		m.bySession[t.SessionID] = append(m.bySession[t.SessionID], t)
	}
	return nil
}

func (m *memTrials) GetSessionTrials(_ context.Context, id uuid.UUID) ([]*models.TrialRecord, error) {
	out := append([]*models.TrialRecord(nil), m.bySession[id]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (m *memTrials) NextPendingTrial(_ context.Context, id uuid.UUID) (*models.TrialRecord, error) {
	trials, _ := m.GetSessionTrials(context.Background(), id)
	for _, t := range trials {
		if !t.Recorded() {
			return t, nil
		}
	}
	return nil, errors.NotFound("pending trial")
}

func (m *memTrials) RecordResponse(_ context.Context, id uuid.UUID, ordinal int, resp models.TrialResponse) error {
	for _, t := range m.bySession[id] {
		if t.Ordinal == ordinal && !t.Recorded() {
			t.SelectedWheel.Int64, t.SelectedWheel.Valid = int64(resp.SelectedWheel), true
			t.IsApproved.Bool, t.IsApproved.Valid = resp.IsApproved, true
			t.Confidence.Int64, t.Confidence.Valid = int64(resp.Confidence), true
			t.Satisfaction.Int64, t.Satisfaction.Valid = int64(resp.Satisfaction), true
			at := time.UnixMilli(resp.Timestamp)
			t.RespondedAt = &at
			return nil
		}
	}
	return errors.NotFound("trial")
}

func (m *memTrials) CountPending(_ context.Context, id uuid.UUID) (int, error) {
	count := 0
	for _, t := range m.bySession[id] {
		if !t.Recorded() {
			count++
		}
	}
	return count, nil
}

type memRNG struct{}

func (memRNG) SessionStream(_ context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed ^ int64(len(name)))), nil
}

type noopWorkbook struct{}

func (noopWorkbook) WriteSession(string, *models.ExperimentSession, models.SessionSummary, []*models.TrialRecord) error {
	return nil
}

func newTestApp() *App {
	cfg := config.ExperimentConfig{MiniBlocks: 5, ApprovalRate: 2.0 / 3.0}
	svc := experiment.NewService(
		&memSessions{byID: make(map[uuid.UUID]*models.ExperimentSession)},
		&memTrials{bySession: make(map[uuid.UUID][]*models.TrialRecord)},
		memRNG{},
		appstats.NewSummaryAdapter(),
		cfg,
		nil,
	)
	return NewApp(svc, noopWorkbook{}, nil)
}

func TestHandleInstructions(t *testing.T) {
	app := newTestApp()
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/instructions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "roulette")
}

func TestSessionFlowOverHTTP(t *testing.T) {
	app := newTestApp()
	router := app.Router()

	// Create a session.
	body := bytes.NewBufferString(`{"participantId":"P100"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
		FirstTrial TrialView `json:"firstTrial"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 1, created.FirstTrial.Ordinal)
	sessionID := created.Session.ID

	// The trial view must not leak the predetermined outcome.
	assert.NotContains(t, rec.Body.String(), "outcomeWin")

	// Wheel render payload for the first trial.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/wheels/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var render experiment.WheelRender
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &render))
	assert.Len(t, render.Pattern, 40)

	// Record a response for the first trial.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/sessions/"+sessionID+"/trials/1/response",
		strings.NewReader(`{"selectedWheel":1,"confidenceRating":70,"satisfactionRating":55}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Recording it again is a conflict.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/sessions/"+sessionID+"/trials/1/response",
		strings.NewReader(`{"selectedWheel":1,"confidenceRating":70,"satisfactionRating":55}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Next trial advances.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/trials/next", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var next TrialView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	assert.Equal(t, 2, next.Ordinal)

	// Export is available mid-session and carries the matrix rows.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sessionID+"/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var export experiment.SessionExport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.Len(t, export.MiniBlocks, 4)
	assert.Equal(t, 1, export.Summary.CompletedTrials)
}

func TestHandlers_BadInputs(t *testing.T) {
	app := newTestApp()
	router := app.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions",
		strings.NewReader(`{"participantId":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
