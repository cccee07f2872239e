package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kediacrm/internal/authz"
	"kediacrm/internal/middleware"
	"kediacrm/internal/models"
	"kediacrm/internal/pdf"
	"kediacrm/internal/repositories"
	"kediacrm/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, actor models.Actor, req models.CreateTaskRequest) (*models.TaskView, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskView), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, actor models.Actor, id string) (*models.TaskView, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskView), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, actor models.Actor, q models.TaskQuery) ([]models.TaskView, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaskView), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, actor models.Actor, id string, patch models.TaskPatch) (*models.TaskView, error) {
	args := m.Called(ctx, actor, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskView), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, actor models.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockTaskService) Stats(ctx context.Context, actor models.Actor) (models.DashboardStats, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(models.DashboardStats), args.Error(1)
}

func (m *MockTaskService) Breakdown(ctx context.Context, actor models.Actor) (models.TaskBreakdown, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(models.TaskBreakdown), args.Error(1)
}

type MockReports struct {
	mock.Mock
}

func (m *MockReports) TaskReport(w io.Writer, data pdf.TaskReportData) error {
	args := m.Called(w, data)
	if args.Error(0) == nil {
		_, _ = w.Write([]byte("%PDF-1.3 fake"))
	}
	return args.Error(0)
}

var admin = models.Actor{ID: "a1", Name: "Owner", Role: models.RoleAdmin}

func asActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, actor.ID)
		c.Set(middleware.CtxUserName, actor.Name)
		c.Set(middleware.CtxRole, actor.Role)
		c.Next()
	}
}

func taskRouter(svc services.TaskService, reports pdf.Generator, actor models.Actor) *gin.Engine {
	h := NewTaskHandler(svc, reports)
	r := gin.New()
	r.Use(asActor(actor))
	r.GET("/tasks", h.List)
	r.GET("/tasks/report.pdf", h.Report)
	r.GET("/tasks/dashboard/stats", h.Stats)
	r.GET("/tasks/:id", h.Get)
	r.POST("/tasks", h.Create)
	r.PUT("/tasks/:id", h.Update)
	r.DELETE("/tasks/:id", h.Delete)
	return r
}

func send(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("role x: %w", authz.ErrAuthorization), http.StatusForbidden},
		{repositories.ErrNotFound, http.StatusNotFound},
		{repositories.ErrDuplicateEmail, http.StatusConflict},
		{fmt.Errorf("bad: %w", services.ErrValidation), http.StatusBadRequest},
		{services.ErrInvalidAssignee, http.StatusBadRequest},
		{errors.New("mongo exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestParseDate(t *testing.T) {
	plain := "2026-05-01"
	got, err := parseDate("targetDate", &plain)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *got)

	full := "2026-05-01T10:30:00Z"
	got, err = parseDate("targetDate", &full)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	empty := " "
	got, err = parseDate("targetDate", &empty)
	require.NoError(t, err)
	assert.Nil(t, got)

	bad := "01/05/2026"
	_, err = parseDate("targetDate", &bad)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestTaskHandler_ListPassesQuery(t *testing.T) {
	svc := new(MockTaskService)
	status := models.StatusCompleted
	priority := models.PriorityHigh
	want := models.TaskQuery{Search: "gst", Status: &status, Priority: &priority}
	svc.On("List", mock.Anything, admin, want).Return([]models.TaskView{{Task: models.Task{ID: "t1"}}}, nil)

	w := send(taskRouter(svc, nil, admin), http.MethodGet, "/tasks?search=gst&status=Completed&priority=High", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.TaskView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
	svc.AssertExpectations(t)
}

func TestTaskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"not found", repositories.ErrNotFound, http.StatusNotFound, "not found"},
		{"forbidden", fmt.Errorf("nope: %w", authz.ErrAuthorization), http.StatusForbidden, "nope: not authorized"},
		{"internal is hidden", errors.New("socket closed"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTaskService)
			svc.On("Get", mock.Anything, admin, "t1").Return(nil, tt.err)

			w := send(taskRouter(svc, nil, admin), http.MethodGet, "/tasks/t1", nil)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q,"message":%q}`, tt.body, tt.body), w.Body.String())
		})
	}
}

func TestTaskHandler_Create(t *testing.T) {
	svc := new(MockTaskService)
	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	svc.On("Create", mock.Anything, admin, models.CreateTaskRequest{
		Description: "File returns",
		GivenTo:     "s1",
		TargetDate:  &due,
		Priority:    models.PriorityHigh,
	}).Return(&models.TaskView{Task: models.Task{ID: "t9", Description: "File returns"}}, nil)

	w := send(taskRouter(svc, nil, admin), http.MethodPost, "/tasks", map[string]any{
		"task":       "File returns",
		"givenTo":    "s1",
		"targetDate": "2026-06-30",
		"priority":   "High",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestTaskHandler_Create_BadInput(t *testing.T) {
	svc := new(MockTaskService)
	r := taskRouter(svc, nil, admin)

	w := send(r, http.MethodPost, "/tasks", map[string]any{"givenTo": "s1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, body["error"], body["message"])

	w = send(r, http.MethodPost, "/tasks", map[string]any{"task": "x", "givenTo": "s1", "targetDate": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_UpdateBuildsPatch(t *testing.T) {
	staff := models.Actor{ID: "s1", Name: "Asha", Role: models.RoleStaff}
	svc := new(MockTaskService)
	svc.On("Update", mock.Anything, staff, "t1", mock.MatchedBy(func(p models.TaskPatch) bool {
		return p.StepsTaken != nil && *p.StepsTaken == "called client" && p.OnlySteps()
	})).Return(&models.TaskView{Task: models.Task{ID: "t1", StepsTaken: "called client"}}, nil)

	w := send(taskRouter(svc, nil, staff), http.MethodPut, "/tasks/t1", map[string]any{"stepsTaken": "called client"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestTaskHandler_Report(t *testing.T) {
	svc := new(MockTaskService)
	tasks := []models.TaskView{
		{Task: models.Task{ID: "t1", Status: models.StatusCompleted}},
		{Task: models.Task{ID: "t2", Status: models.StatusPending}},
	}
	svc.On("List", mock.Anything, admin, models.TaskQuery{}).Return(tasks, nil)

	reports := new(MockReports)
	reports.On("TaskReport", mock.Anything, mock.MatchedBy(func(d pdf.TaskReportData) bool {
		return d.Stats.Total == 2 && d.Stats.CompletionPercent == 50 && d.GeneratedBy == "Owner"
	})).Return(nil)

	w := send(taskRouter(svc, reports, admin), http.MethodGet, "/tasks/report.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestCapabilities(t *testing.T) {
	h := NewSystemHandler()
	tests := []struct {
		role models.Role
		code int
		body string
	}{
		{models.RoleAdmin, http.StatusOK, `{"type":"admin","adminFields":true,"taskActions":["edit","delete"]}`},
		{models.RoleStaff, http.StatusOK, `{"type":"staff","adminFields":false,"taskActions":["updateSteps"]}`},
	}
	for _, tt := range tests {
		r := gin.New()
		r.Use(asActor(models.Actor{ID: "x", Role: tt.role}))
		r.GET("/me", h.Capabilities)

		w := send(r, http.MethodGet, "/me", nil)
		assert.Equal(t, tt.code, w.Code)
		assert.JSONEq(t, tt.body, w.Body.String())
	}

	r := gin.New()
	r.GET("/me", h.Capabilities)
	w := send(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("no route to host") }

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/ok", NewSystemHandler(repositories.NewTaskStorage()).Health)
	r.GET("/down", NewSystemHandler(repositories.NewTaskStorage(), failingPinger{}).Health)

	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/ok", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, send(r, http.MethodGet, "/down", nil).Code)
}
