package services

import (
	"net/url"

	"kediacrm/internal/models"
)

// FilterTasks returns the tasks matching every constraint of q, in input order.
// Enum values are not validated: an unknown status simply matches nothing.
func FilterTasks(tasks []models.Task, q models.TaskQuery) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ParseTaskQuery reads ?search&status&priority&givenBy&givenTo. Empty values are ignored.
// Search is kept verbatim: surrounding spaces are part of the substring.
func ParseTaskQuery(values url.Values) models.TaskQuery {
	var q models.TaskQuery
	q.Search = values.Get("search")
	if v := values.Get("status"); v != "" {
		s := models.TaskStatus(v)
		q.Status = &s
	}
	if v := values.Get("priority"); v != "" {
		p := models.TaskPriority(v)
		q.Priority = &p
	}
	if v := values.Get("givenBy"); v != "" {
		q.GivenBy = &v
	}
	if v := values.Get("givenTo"); v != "" {
		q.GivenTo = &v
	}
	return q
}
