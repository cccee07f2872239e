// internal/models/task.go
package models

import (
	"strings"
	"time"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents the structure of a task in the system.
// GivenTo holds the id of the staff user the task is assigned to.
type Task struct {
	ID             string       `json:"_id"`
	Description    string       `json:"task"`
	GivenBy        string       `json:"givenBy"`
	GivenTo        string       `json:"givenTo"`
	DateAllocation time.Time    `json:"dateAllocation"`
	TargetDate     *time.Time   `json:"targetDate,omitempty"`
	Priority       TaskPriority `json:"priority"`
	Status         TaskStatus   `json:"status"`
	StepsTaken     string       `json:"stepsTaken,omitempty"`
	LastUpdated    *time.Time   `json:"lastUpdated,omitempty"`
	NextUpdate     *time.Time   `json:"nextUpdate,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Description    *string       `json:"task,omitempty"`
	GivenBy        *string       `json:"givenBy,omitempty"`
	GivenTo        *string       `json:"givenTo,omitempty"`
	DateAllocation *time.Time    `json:"dateAllocation,omitempty"`
	TargetDate     *time.Time    `json:"targetDate,omitempty"`
	Priority       *TaskPriority `json:"priority,omitempty"`
	Status         *TaskStatus   `json:"status,omitempty"`
	StepsTaken     *string       `json:"stepsTaken,omitempty"`
	LastUpdated    *time.Time    `json:"lastUpdated,omitempty"`
	NextUpdate     *time.Time    `json:"nextUpdate,omitempty"`
}

// Apply copies every non-nil field of the patch onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.GivenBy != nil {
		t.GivenBy = *p.GivenBy
	}
	if p.GivenTo != nil {
		t.GivenTo = *p.GivenTo
	}
	if p.DateAllocation != nil {
		t.DateAllocation = *p.DateAllocation
	}
	if p.TargetDate != nil {
		t.TargetDate = p.TargetDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.StepsTaken != nil {
		t.StepsTaken = *p.StepsTaken
	}
	if p.LastUpdated != nil {
		t.LastUpdated = p.LastUpdated
	}
	if p.NextUpdate != nil {
		t.NextUpdate = p.NextUpdate
	}
}

// OnlySteps reports whether the patch touches nothing but the progress
// fields a staff member is allowed to change.
func (p TaskPatch) OnlySteps() bool {
	return p.Description == nil &&
		p.GivenBy == nil &&
		p.GivenTo == nil &&
		p.DateAllocation == nil &&
		p.TargetDate == nil &&
		p.Priority == nil &&
		p.Status == nil &&
		p.NextUpdate == nil
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TaskPatch) IsEmpty() bool {
	return p.OnlySteps() && p.StepsTaken == nil && p.LastUpdated == nil
}

// TaskQuery defines the available parameters for filtering tasks.
// Nil fields mean "no constraint".
type TaskQuery struct {
	Search   string
	Status   *TaskStatus
	Priority *TaskPriority
	GivenBy  *string
	GivenTo  *string

	// set by And
	moreSearch []string
	never      bool
}

// Match reports whether t satisfies every constraint of q.
func (q TaskQuery) Match(t Task) bool {
	if q.never {
		return false
	}
	desc := strings.ToLower(t.Description)
	if q.Search != "" && !strings.Contains(desc, strings.ToLower(q.Search)) {
		return false
	}
	for _, s := range q.moreSearch {
		if !strings.Contains(desc, strings.ToLower(s)) {
			return false
		}
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	if q.GivenBy != nil && t.GivenBy != *q.GivenBy {
		return false
	}
	if q.GivenTo != nil && t.GivenTo != *q.GivenTo {
		return false
	}
	return true
}

// And returns a query matching exactly the tasks matched by both q and o.
func (q TaskQuery) And(o TaskQuery) TaskQuery {
	out := q
	out.moreSearch = append(append([]string(nil), q.moreSearch...), o.moreSearch...)
	switch {
	case out.Search == "":
		out.Search = o.Search
	case o.Search != "":
		out.moreSearch = append(out.moreSearch, o.Search)
	}
	out.never = q.never || o.never

	var ok bool
	if out.Status, ok = andField(q.Status, o.Status); !ok {
		out.never = true
	}
	if out.Priority, ok = andField(q.Priority, o.Priority); !ok {
		out.never = true
	}
	if out.GivenBy, ok = andField(q.GivenBy, o.GivenBy); !ok {
		out.never = true
	}
	if out.GivenTo, ok = andField(q.GivenTo, o.GivenTo); !ok {
		out.never = true
	}
	return out
}

// andField intersects two optional equality constraints; ok is false when they conflict.
func andField[T comparable](a, b *T) (*T, bool) {
	switch {
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	case *a == *b:
		return a, true
	default:
		return a, false
	}
}

// TaskAssignee is the expanded view of Task.GivenTo in API responses.
type TaskAssignee struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

// TaskView is a task with its assignee expanded.
type TaskView struct {
	Task
	GivenTo *TaskAssignee `json:"givenTo"`
}

// DashboardStats is the summary rendered on the dashboard cards.
type DashboardStats struct {
	Total             int `json:"totalTasks"`
	Pending           int `json:"pendingTasks"`
	Completed         int `json:"completedTasks"`
	CompletionPercent int `json:"completionPercent"`
}

// TaskBreakdown feeds the dashboard and report charts.
type TaskBreakdown struct {
	ByStatus            map[TaskStatus]int   `json:"byStatus"`
	ByPriority          map[TaskPriority]int `json:"byPriority"`
	CompletedByAssignee map[string]int       `json:"completedByAssignee"`
}

type CreateTaskRequest struct {
	Description    string       `json:"task" binding:"required"`
	GivenBy        string       `json:"givenBy"`
	GivenTo        string       `json:"givenTo" binding:"required"`
	DateAllocation *time.Time   `json:"dateAllocation"`
	TargetDate     *time.Time   `json:"targetDate"`
	Priority       TaskPriority `json:"priority"`
	Status         TaskStatus   `json:"status"`
	NextUpdate     *time.Time   `json:"nextUpdate"`
}
