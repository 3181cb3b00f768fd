package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"intervention_backend/internal/config"
	"intervention_backend/internal/repository"
	"intervention_backend/internal/service"
	"intervention_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router     *gin.Engine
	dispatcher *service.Dispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedStudents(db, []string{"s1:Ada", "s2:Grace"}))

	store := repository.NewGormStore(db)
	broadcaster := service.NewMemoryBroadcaster()
	dispatcher := service.NewDispatcher(service.NewWebhookNotifier(""), time.Second)
	interventions := service.NewInterventionService(store, service.NewMemoryLocker(), dispatcher, broadcaster)
	status := service.NewStatusService(store, broadcaster, 5*time.Second, 50*time.Millisecond)

	students := NewStudentController(status)
	checkins := NewCheckinController(interventions)
	ivs := NewInterventionController(interventions)
	health := NewHealthController(db, nil)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/health", health.HealthCheck)
	api.GET("/students", students.ListStudents)
	api.GET("/students/:id/status", students.GetStatus)
	api.GET("/students/:id/status/wait", students.WaitForStatus)
	api.GET("/students/:id/logs", students.ListLogs)
	api.GET("/students/:id/interventions", students.ListInterventions)
	api.POST("/checkins", checkins.SubmitCheckin)
	api.POST("/interventions/assign", ivs.AssignTask)
	api.POST("/interventions/complete", ivs.CompleteTask)

	t.Cleanup(dispatcher.Wait)
	return &testServer{router: r, dispatcher: dispatcher}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestCheckinFlow(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/checkins", gin.H{"student_id": "s1", "quiz_score": 9, "focus_minutes": 70})
	require.Equal(t, http.StatusOK, w.Code)
	var res service.CheckinResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "On Track", res.Status)
	assert.True(t, env.Success)

	w, env = s.do(t, http.MethodPost, "/api/checkins", gin.H{"student_id": "s1", "quiz_score": 5, "focus_minutes": 30})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Pending Mentor Review", res.Status)
	assert.NotEmpty(t, res.InterventionID)

	w, env = s.do(t, http.MethodGet, "/api/students/s1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Student struct {
			Status string `json:"status"`
		} `json:"student"`
		PendingIntervention *struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"pending_intervention"`
		PollIntervalSeconds int `json:"poll_interval_seconds"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Needs Intervention", view.Student.Status)
	require.NotNil(t, view.PendingIntervention)
	assert.Equal(t, res.InterventionID, view.PendingIntervention.ID)
	assert.Contains(t, view.PendingIntervention.Reason, "5")
	assert.Contains(t, view.PendingIntervention.Reason, "30")
	assert.Equal(t, 5, view.PollIntervalSeconds)

	w, env = s.do(t, http.MethodPost, "/api/interventions/assign", gin.H{"student_id": "s1", "task": "Complete chapter 3 exercises"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task assigned successfully", env.Message)
	var assigned service.AssignTaskResult
	require.NoError(t, json.Unmarshal(env.Data, &assigned))
	assert.Equal(t, "Complete chapter 3 exercises", assigned.Task)
	assert.Equal(t, res.InterventionID, assigned.InterventionID)

	w, env = s.do(t, http.MethodPost, "/api/interventions/complete", gin.H{"student_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task completed. Welcome back on track!", env.Message)

	w, env = s.do(t, http.MethodGet, "/api/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "Normal", list[0].Status)

	w, env = s.do(t, http.MethodGet, "/api/students/s1/logs?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	assert.Len(t, logs, 2)

	w, env = s.do(t, http.MethodGet, "/api/students/s1/interventions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ivs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &ivs))
	require.Len(t, ivs, 1)
	assert.Equal(t, "Completed", ivs[0]["status"])
}

func TestCheckinValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body interface{}
	}{
		{"missing focus", gin.H{"student_id": "s1", "quiz_score": 9}},
		{"missing student", gin.H{"quiz_score": 9, "focus_minutes": 70}},
		{"quiz out of range", gin.H{"student_id": "s1", "quiz_score": 12, "focus_minutes": 70}},
		{"wrong type", gin.H{"student_id": "s1", "quiz_score": "nine", "focus_minutes": 70}},
		{"malformed json", `{"student_id":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := s.do(t, http.MethodPost, "/api/checkins", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}

	w, env := s.do(t, http.MethodGet, "/api/students/s1/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestUnknownStudent(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/students/ghost/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/checkins", gin.H{"student_id": "ghost", "quiz_score": 9, "focus_minutes": 70})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/interventions/complete", gin.H{"student_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInterventionValidation(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/interventions/assign", gin.H{"student_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/interventions/complete", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 没有已分配的任务时完成操作不做处理
	w, env := s.do(t, http.MethodPost, "/api/interventions/complete", gin.H{"student_id": "s2"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestWaitForStatus(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/students/s1/status/wait?known=Normal&timeout=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unchanged", env.Message)

	w, env = s.do(t, http.MethodGet, "/api/students/s1/status/wait?known=Remedial", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "changed", env.Message)

	w, _ = s.do(t, http.MethodGet, "/api/students/s1/status/wait?timeout=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","components":{"database":"up"}}`, string(env.Data))
}
