package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyNotesAPI/internal/progress"
	"studyNotesAPI/middleware"
	"studyNotesAPI/services"
)

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(r.Context(), middleware.AuthUserKey, &middleware.AuthUser{
		UID:   "uid-1",
		Email: "test@example.com",
	})
	return r.WithContext(ctx)
}

func newTestProgressHandler() *ProgressHandler {
	store := services.NewMemoryProgressStore()
	return NewProgressHandler(services.NewProgressService(store, nil))
}

func TestGetStatsReturnsDefaults(t *testing.T) {
	h := newTestProgressHandler()

	w := httptest.NewRecorder()
	h.GetStats(w, authedRequest(t, http.MethodGet, "/api/v1/user/stats", ""))

	require.Equal(t, http.StatusOK, w.Code)

	var stats progress.UserProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, progress.DefaultDailyQuestionGoal, stats.DailyQuestionGoal)
	assert.Equal(t, 0, stats.CurrentStreak)

	// Null date fields stay null in the wire format.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Nil(t, raw["lastGoalMetDate"])
	assert.Nil(t, raw["questionsAnsweredTodayDate"])
}

func TestGetStatsRequiresAuth(t *testing.T) {
	h := newTestProgressHandler()

	w := httptest.NewRecorder()
	h.GetStats(w, httptest.NewRequest(http.MethodGet, "/api/v1/user/stats", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateGoalsRoundTrip(t *testing.T) {
	h := newTestProgressHandler()

	w := httptest.NewRecorder()
	h.UpdateGoals(w, authedRequest(t, http.MethodPut, "/api/v1/user/goals",
		`{"dailyQuestionGoal": 3, "dailyUploadGoal": 1}`))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.GetGoals(w, authedRequest(t, http.MethodGet, "/api/v1/user/goals", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var goals progress.Goals
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goals))
	assert.Equal(t, 3, goals.DailyQuestionGoal)
	assert.Equal(t, 1, goals.DailyUploadGoal)
}

func TestUpdateGoalsRejectsNegative(t *testing.T) {
	h := newTestProgressHandler()

	w := httptest.NewRecorder()
	h.UpdateGoals(w, authedRequest(t, http.MethodPut, "/api/v1/user/goals",
		`{"dailyQuestionGoal": -1, "dailyUploadGoal": 2}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Goals are unchanged after the rejected update.
	w = httptest.NewRecorder()
	h.GetGoals(w, authedRequest(t, http.MethodGet, "/api/v1/user/goals", ""))
	var goals progress.Goals
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goals))
	assert.Equal(t, progress.DefaultDailyQuestionGoal, goals.DailyQuestionGoal)
}

func TestUpdateGoalsRejectsBadBody(t *testing.T) {
	h := newTestProgressHandler()

	w := httptest.NewRecorder()
	h.UpdateGoals(w, authedRequest(t, http.MethodPut, "/api/v1/user/goals", `not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
