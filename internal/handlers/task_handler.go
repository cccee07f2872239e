package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kediacrm/internal/models"
	"kediacrm/internal/pdf"
	"kediacrm/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	reports pdf.Generator
}

func NewTaskHandler(service services.TaskService, reports pdf.Generator) *TaskHandler {
	return &TaskHandler{service: service, reports: reports}
}

// dates arrive as RFC3339 or yyyy-mm-dd strings from the dashboard forms
type createTaskRequest struct {
	Task           string              `json:"task" binding:"required"`
	GivenBy        string              `json:"givenBy"`
	GivenTo        string              `json:"givenTo" binding:"required"`
	DateAllocation *string             `json:"dateAllocation"`
	TargetDate     *string             `json:"targetDate"`
	Priority       models.TaskPriority `json:"priority"`
	Status         models.TaskStatus   `json:"status"`
	NextUpdate     *string             `json:"nextUpdate"`
}

func (r createTaskRequest) toModel() (models.CreateTaskRequest, error) {
	out := models.CreateTaskRequest{
		Description: r.Task,
		GivenBy:     r.GivenBy,
		GivenTo:     r.GivenTo,
		Priority:    r.Priority,
		Status:      r.Status,
	}
	var err error
	if out.DateAllocation, err = parseDate("dateAllocation", r.DateAllocation); err != nil {
		return out, err
	}
	if out.TargetDate, err = parseDate("targetDate", r.TargetDate); err != nil {
		return out, err
	}
	if out.NextUpdate, err = parseDate("nextUpdate", r.NextUpdate); err != nil {
		return out, err
	}
	return out, nil
}

type updateTaskRequest struct {
	Task           *string              `json:"task"`
	GivenBy        *string              `json:"givenBy"`
	GivenTo        *string              `json:"givenTo"`
	DateAllocation *string              `json:"dateAllocation"`
	TargetDate     *string              `json:"targetDate"`
	Priority       *models.TaskPriority `json:"priority"`
	Status         *models.TaskStatus   `json:"status"`
	StepsTaken     *string              `json:"stepsTaken"`
	LastUpdated    *string              `json:"lastUpdated"`
	NextUpdate     *string              `json:"nextUpdate"`
}

func (r updateTaskRequest) toPatch() (models.TaskPatch, error) {
	p := models.TaskPatch{
		Description: r.Task,
		GivenBy:     r.GivenBy,
		GivenTo:     r.GivenTo,
		Priority:    r.Priority,
		Status:      r.Status,
		StepsTaken:  r.StepsTaken,
	}
	var err error
	if p.DateAllocation, err = parseDate("dateAllocation", r.DateAllocation); err != nil {
		return p, err
	}
	if p.TargetDate, err = parseDate("targetDate", r.TargetDate); err != nil {
		return p, err
	}
	if p.LastUpdated, err = parseDate("lastUpdated", r.LastUpdated); err != nil {
		return p, err
	}
	if p.NextUpdate, err = parseDate("nextUpdate", r.NextUpdate); err != nil {
		return p, err
	}
	return p, nil
}

// @Summary      List tasks
// @Description  Filters by free-text search and exact status, priority and assigner. Staff only see their own tasks.
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        search    query  string  false  "substring of the task text, case-insensitive"
// @Param        status    query  string  false  "Pending, In Progress or Completed"
// @Param        priority  query  string  false  "Low, Medium or High"
// @Param        givenBy   query  string  false  "assigner name"
// @Success      200  {array}  models.TaskView
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	q := services.ParseTaskQuery(c.Request.URL.Query())
	tasks, err := h.service.List(c.Request.Context(), getActor(c), q)
	if err != nil {
		respondError(c, "[task][list]", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// @Summary  Get task
// @Tags     Tasks
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Task ID"
// @Success  200  {object}  models.TaskView
// @Failure  404  {object}  map[string]string
// @Router   /api/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), getActor(c), c.Param("id"))
	if err != nil {
		respondError(c, "[task][get]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary  Create task
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    task  body  createTaskRequest  true  "New task"
// @Success  201  {object}  models.TaskView
// @Failure  400  {object}  map[string]string
// @Failure  403  {object}  map[string]string
// @Router   /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[task][create]", err)
		return
	}
	in, err := req.toModel()
	if err != nil {
		respondError(c, "[task][create]", err)
		return
	}
	task, err := h.service.Create(c.Request.Context(), getActor(c), in)
	if err != nil {
		respondError(c, "[task][create]", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// @Summary      Update task
// @Description  Admins may change any field. Staff may only send stepsTaken and lastUpdated for their own tasks.
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true  "Task ID"
// @Param        task  body  updateTaskRequest  true  "Fields to change"
// @Success      200  {object}  models.TaskView
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[task][update]", err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondError(c, "[task][update]", err)
		return
	}
	task, err := h.service.Update(c.Request.Context(), getActor(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, "[task][update]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary  Delete task
// @Tags     Tasks
// @Security BearerAuth
// @Param    id  path  string  true  "Task ID"
// @Success  200  {object}  map[string]string
// @Failure  403  {object}  map[string]string
// @Failure  404  {object}  map[string]string
// @Router   /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), getActor(c), c.Param("id")); err != nil {
		respondError(c, "[task][delete]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// @Summary  Dashboard stats
// @Tags     Dashboard
// @Produce  json
// @Security BearerAuth
// @Success  200  {object}  models.DashboardStats
// @Router   /api/tasks/dashboard/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[task][stats]", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary  Dashboard chart data
// @Tags     Dashboard
// @Produce  json
// @Security BearerAuth
// @Success  200  {object}  models.TaskBreakdown
// @Router   /api/tasks/dashboard/breakdown [get]
func (h *TaskHandler) Breakdown(c *gin.Context) {
	b, err := h.service.Breakdown(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[task][breakdown]", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// @Summary      Task report
// @Description  PDF of the tasks matching the same filters as the list endpoint
// @Tags         Tasks
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        search    query  string  false  "substring of the task text"
// @Param        status    query  string  false  "status"
// @Param        priority  query  string  false  "priority"
// @Param        givenBy   query  string  false  "assigner name"
// @Success      200
// @Router       /api/tasks/report.pdf [get]
func (h *TaskHandler) Report(c *gin.Context) {
	ctx := c.Request.Context()
	actor := getActor(c)

	tasks, err := h.service.List(ctx, actor, services.ParseTaskQuery(c.Request.URL.Query()))
	if err != nil {
		respondError(c, "[task][report]", err)
		return
	}
	plain := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		plain = append(plain, t.Task)
	}

	now := time.Now()
	var buf bytes.Buffer
	err = h.reports.TaskReport(&buf, pdf.TaskReportData{
		Title:       "Task report",
		GeneratedBy: actor.Name,
		GeneratedAt: now,
		Stats:       services.SummarizeTasks(plain),
		Breakdown:   services.BreakdownTasks(plain),
		Tasks:       tasks,
	})
	if err != nil {
		respondError(c, "[task][report][pdf]", err)
		return
	}
	filename := fmt.Sprintf("tasks_%s.pdf", now.Format("20060102_1504"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
