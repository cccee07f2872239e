package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"kediacrm/internal/config"
	"kediacrm/internal/models"
)

// APISuite drives the whole HTTP surface over in-memory stores.
type APISuite struct {
	suite.Suite
	cfg    *config.Config
	stores *Stores
	router *gin.Engine

	adminToken string
	staffID    string
	staffToken string
}

func TestAPISuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.cfg = &config.Config{}
	s.cfg.Repository.Type = "inmemory"
	s.cfg.Auth.JWTSecret = "suite-secret"
	s.cfg.Auth.TokenTTL = time.Hour
	s.cfg.Bootstrap.AdminName = "Owner"
	s.cfg.Bootstrap.AdminEmail = "owner@kedia.com"
	s.cfg.Bootstrap.AdminPassword = "owner-pw"

	ctx := context.Background()
	stores, err := openStores(ctx, s.cfg)
	s.Require().NoError(err)
	s.stores = stores
	s.Require().NoError(bootstrapAdmin(ctx, s.cfg, stores.Users, Services{}))

	s.router, err = NewEngine(s.cfg, stores, Services{})
	s.Require().NoError(err)

	s.adminToken = s.login("owner@kedia.com", "owner-pw")

	var staff models.User
	w := s.call(http.MethodPost, "/api/users", s.adminToken, map[string]any{
		"name": "Asha", "email": "asha@kedia.com", "password": "asha-pw", "type": "staff", "department": "Tax",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.decode(w, &staff)
	s.staffID = staff.ID
	s.staffToken = s.login("asha@kedia.com", "asha-pw")
}

func (s *APISuite) call(method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APISuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *APISuite) login(email, password string) string {
	w := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	s.decode(w, &resp)
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *APISuite) createTask(desc, priority string) string {
	w := s.call(http.MethodPost, "/api/tasks", s.adminToken, map[string]any{
		"task": desc, "givenTo": s.staffID, "priority": priority, "targetDate": "2026-12-31",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var v struct {
		ID string `json:"_id"`
	}
	s.decode(w, &v)
	return v.ID
}

func (s *APISuite) TestBootstrapRunsOnce() {
	s.Require().NoError(bootstrapAdmin(context.Background(), s.cfg, s.stores.Users, Services{}))
	users, err := s.stores.Users.List(context.Background())
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *APISuite) TestLoginFailuresLookTheSame() {
	wrong := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@kedia.com", "password": "nope"})
	unknown := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@kedia.com", "password": "nope"})
	s.Equal(http.StatusUnauthorized, wrong.Code)
	s.Equal(http.StatusUnauthorized, unknown.Code)
	s.JSONEq(wrong.Body.String(), unknown.Body.String())

	missing := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "owner@kedia.com"})
	s.Equal(http.StatusBadRequest, missing.Code)
}

func (s *APISuite) TestVerifyAndCapabilities() {
	w := s.call(http.MethodGet, "/api/auth/verify", s.staffToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"email":"asha@kedia.com"`)
	s.NotContains(w.Body.String(), "password")

	w = s.call(http.MethodGet, "/api/me/capabilities", s.staffToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"type":"staff","adminFields":false,"taskActions":["updateSteps"]}`, w.Body.String())

	s.Equal(http.StatusUnauthorized, s.call(http.MethodGet, "/api/auth/verify", "", nil).Code)
}

func (s *APISuite) TestUserManagementIsAdminOnly() {
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/users", s.staffToken, nil).Code)
	s.Equal(http.StatusForbidden, s.call(http.MethodPost, "/api/users", s.staffToken, map[string]any{}).Code)

	w := s.call(http.MethodGet, "/api/users/staff", s.staffToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var staff []models.User
	s.decode(w, &staff)
	s.Len(staff, 1)

	dup := s.call(http.MethodPost, "/api/users", s.adminToken, map[string]any{
		"name": "Other", "email": "ASHA@kedia.com", "password": "pw", "type": "staff",
	})
	s.Equal(http.StatusConflict, dup.Code)

	w = s.call(http.MethodGet, "/api/users?type=admin", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var admins []models.User
	s.decode(w, &admins)
	s.Len(admins, 1)
}

func (s *APISuite) createAdmin(email string) (string, string) {
	w := s.call(http.MethodPost, "/api/users", s.adminToken, map[string]any{
		"name": "Deputy", "email": email, "password": "deputy-pw", "type": "admin",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var u models.User
	s.decode(w, &u)
	return u.ID, s.login(email, "deputy-pw")
}

func (s *APISuite) TestDemotedAdminLosesAdminRoutes() {
	id, token := s.createAdmin("deputy@kedia.com")
	s.Equal(http.StatusOK, s.call(http.MethodGet, "/api/users", token, nil).Code)

	w := s.call(http.MethodPut, "/api/users/"+id, s.adminToken, map[string]any{"type": "staff"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/users", token, nil).Code)
	w = s.call(http.MethodGet, "/api/me/capabilities", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"staff"`)
}

func (s *APISuite) TestDeletedAccountTokenIsRejected() {
	id, token := s.createAdmin("leaver@kedia.com")

	w := s.call(http.MethodDelete, "/api/users/"+id, s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.call(http.MethodPost, "/api/users", token, map[string]any{
		"name": "Backdoor", "email": "backdoor@kedia.com", "password": "pw", "type": "admin",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
	var body map[string]string
	s.decode(w, &body)
	s.Equal("Invalid or expired token", body["message"])

	s.Equal(http.StatusUnauthorized, s.call(http.MethodGet, "/api/tasks", token, nil).Code)
	s.Equal(http.StatusUnauthorized, s.call(http.MethodGet, "/api/auth/verify", token, nil).Code)
}

func (s *APISuite) TestTaskFlow() {
	id := s.createTask("File GST return", "High")
	s.createTask("Call the bank", "Low")

	// staff cannot create or delete
	s.Equal(http.StatusForbidden, s.call(http.MethodPost, "/api/tasks", s.staffToken, map[string]any{"task": "x", "givenTo": s.staffID}).Code)
	s.Equal(http.StatusForbidden, s.call(http.MethodDelete, "/api/tasks/"+id, s.staffToken, nil).Code)

	// the assignee must be staff
	w := s.call(http.MethodPost, "/api/tasks", s.adminToken, map[string]any{"task": "x", "givenTo": "nobody"})
	s.Equal(http.StatusBadRequest, w.Code)

	// filtering
	w = s.call(http.MethodGet, "/api/tasks?search=gst&priority=High", s.staffToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.TaskView
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal(id, list[0].ID)
	s.Require().NotNil(list[0].GivenTo)
	s.Equal("Asha", list[0].GivenTo.Name)

	// staff may record progress but nothing else
	w = s.call(http.MethodPut, "/api/tasks/"+id, s.staffToken, map[string]any{"stepsTaken": "collected invoices"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w = s.call(http.MethodPut, "/api/tasks/"+id, s.staffToken, map[string]any{"status": "Completed"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.call(http.MethodPut, "/api/tasks/"+id, s.adminToken, map[string]any{"status": "Completed"})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.call(http.MethodGet, "/api/tasks/dashboard/stats", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"totalTasks":2,"pendingTasks":1,"completedTasks":1,"completionPercent":50}`, w.Body.String())

	w = s.call(http.MethodGet, "/api/tasks/dashboard/breakdown", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var b models.TaskBreakdown
	s.decode(w, &b)
	s.Equal(1, b.CompletedByAssignee[s.staffID])

	w = s.call(http.MethodGet, "/api/tasks/report.pdf?status=Completed", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	s.Equal(http.StatusForbidden, s.call(http.MethodGet, "/api/tasks/report.pdf", s.staffToken, nil).Code)

	s.Equal(http.StatusOK, s.call(http.MethodDelete, "/api/tasks/"+id, s.adminToken, nil).Code)
	s.Equal(http.StatusNotFound, s.call(http.MethodGet, "/api/tasks/"+id, s.adminToken, nil).Code)
	s.Equal(http.StatusNotFound, s.call(http.MethodDelete, "/api/tasks/"+id, s.adminToken, nil).Code)
}

func (s *APISuite) TestHealthAndSwagger() {
	w := s.call(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))

	w = s.call(http.MethodGet, "/swagger/doc.json", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "/api/tasks/dashboard/stats")
}

func (s *APISuite) TestCORSPreflight() {
	w := s.call(http.MethodOptions, "/api/tasks", "", nil)
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenStores_UnknownType(t *testing.T) {
	cfg := &config.Config{}
	cfg.Repository.Type = "postgres"
	_, err := openStores(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown repository type")
	}
}
