package services

import (
	"math"

	"kediacrm/internal/models"
)

// SummarizeTasks computes the dashboard cards. In Progress counts as pending.
func SummarizeTasks(tasks []models.Task) models.DashboardStats {
	stats := models.DashboardStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusPending, models.StatusInProgress:
			stats.Pending++
		case models.StatusCompleted:
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		// math.Round rounds half away from zero
		stats.CompletionPercent = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}

// BreakdownTasks counts tasks per status and priority, and completed tasks per assignee id.
func BreakdownTasks(tasks []models.Task) models.TaskBreakdown {
	b := models.TaskBreakdown{
		ByStatus: map[models.TaskStatus]int{
			models.StatusPending:    0,
			models.StatusInProgress: 0,
			models.StatusCompleted:  0,
		},
		ByPriority: map[models.TaskPriority]int{
			models.PriorityLow:    0,
			models.PriorityMedium: 0,
			models.PriorityHigh:   0,
		},
		CompletedByAssignee: map[string]int{},
	}
	for _, t := range tasks {
		b.ByStatus[t.Status]++
		b.ByPriority[t.Priority]++
		if t.Status == models.StatusCompleted {
			b.CompletedByAssignee[t.GivenTo]++
		}
	}
	return b
}
