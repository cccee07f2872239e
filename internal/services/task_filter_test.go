package services_test

import (
	"net/url"
	"testing"

	"kediacrm/internal/models"
	"kediacrm/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "1", Description: "Call the GST office", GivenBy: "Rakesh", GivenTo: "s1", Priority: models.PriorityHigh, Status: models.StatusPending},
		{ID: "2", Description: "Prepare quarterly invoice", GivenBy: "Rakesh", GivenTo: "s2", Priority: models.PriorityMedium, Status: models.StatusInProgress},
		{ID: "3", Description: "Reconcile invoice batch", GivenBy: "Sunita", GivenTo: "s1", Priority: models.PriorityHigh, Status: models.StatusCompleted},
		{ID: "4", Description: "Archive old files", GivenBy: "Sunita", GivenTo: "s2", Priority: models.PriorityLow, Status: models.StatusCompleted},
		{ID: "5", Description: "call back supplier", GivenBy: "Rakesh", GivenTo: "s2", Priority: models.PriorityLow, Status: models.StatusPending},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTasks(t *testing.T) {
	tasks := sampleTasks()

	tests := []struct {
		name  string
		query models.TaskQuery
		want  []string
	}{
		{"empty query is identity", models.TaskQuery{}, []string{"1", "2", "3", "4", "5"}},
		{"search is case-insensitive substring", models.TaskQuery{Search: "CALL"}, []string{"1", "5"}},
		{"search inside a word", models.TaskQuery{Search: "voic"}, []string{"2", "3"}},
		{"status exact", models.TaskQuery{Status: ptr(models.StatusCompleted)}, []string{"3", "4"}},
		{"priority exact", models.TaskQuery{Priority: ptr(models.PriorityLow)}, []string{"4", "5"}},
		{"givenBy exact", models.TaskQuery{GivenBy: ptr("Sunita")}, []string{"3", "4"}},
		{"givenBy is case-sensitive", models.TaskQuery{GivenBy: ptr("sunita")}, []string{}},
		{"givenTo exact", models.TaskQuery{GivenTo: ptr("s1")}, []string{"1", "3"}},
		{"completed and high", models.TaskQuery{Status: ptr(models.StatusCompleted), Priority: ptr(models.PriorityHigh)}, []string{"3"}},
		{"unknown status matches nothing", models.TaskQuery{Status: ptr(models.TaskStatus("Done"))}, []string{}},
		{"all constraints", models.TaskQuery{Search: "call", GivenBy: ptr("Rakesh"), Priority: ptr(models.PriorityLow), Status: ptr(models.StatusPending)}, []string{"5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.FilterTasks(tasks, tt.query)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterTasks_EmptyInput(t *testing.T) {
	got := services.FilterTasks(nil, models.TaskQuery{Search: "x"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterTasks_IsOrderedSubsequence(t *testing.T) {
	tasks := sampleTasks()
	queries := []models.TaskQuery{
		{},
		{Search: "i"},
		{Status: ptr(models.StatusPending)},
		{GivenTo: ptr("s2"), Search: "a"},
	}
	for _, q := range queries {
		got := services.FilterTasks(tasks, q)
		j := 0
		for _, g := range got {
			for j < len(tasks) && tasks[j].ID != g.ID {
				j++
			}
			require.Less(t, j, len(tasks), "result is not a subsequence for %+v", q)
			j++
		}
	}
}

func TestFilterTasks_Composable(t *testing.T) {
	tasks := sampleTasks()
	queries := []models.TaskQuery{
		{},
		{Search: "call"},
		{Search: "invoice"},
		{Status: ptr(models.StatusCompleted)},
		{Status: ptr(models.StatusPending)},
		{Priority: ptr(models.PriorityHigh)},
		{GivenBy: ptr("Rakesh")},
		{GivenTo: ptr("s1"), Search: "c"},
	}
	for _, q1 := range queries {
		for _, q2 := range queries {
			chained := services.FilterTasks(services.FilterTasks(tasks, q1), q2)
			combined := services.FilterTasks(tasks, q1.And(q2))
			assert.Equal(t, ids(chained), ids(combined), "q1=%+v q2=%+v", q1, q2)
		}
	}
}

func TestParseTaskQuery(t *testing.T) {
	q := services.ParseTaskQuery(url.Values{
		"search":   {"invoice "},
		"status":   {"In Progress"},
		"priority": {"High"},
		"givenBy":  {"Rakesh"},
	})
	assert.Equal(t, "invoice ", q.Search)
	require.NotNil(t, q.Status)
	assert.Equal(t, models.StatusInProgress, *q.Status)
	require.NotNil(t, q.Priority)
	assert.Equal(t, models.PriorityHigh, *q.Priority)
	require.NotNil(t, q.GivenBy)
	assert.Equal(t, "Rakesh", *q.GivenBy)
	assert.Nil(t, q.GivenTo)

	empty := services.ParseTaskQuery(url.Values{"status": {""}})
	assert.Nil(t, empty.Status)
	assert.Len(t, services.FilterTasks(sampleTasks(), empty), 5)
}

func TestParseTaskQuery_SearchKeepsSpaces(t *testing.T) {
	tasks := append(sampleTasks(), models.Task{ID: "6", Description: "Checklist", Status: models.StatusPending})

	space := services.ParseTaskQuery(url.Values{"search": {" "}})
	assert.Equal(t, " ", space.Search)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(services.FilterTasks(tasks, space)))

	trailing := services.ParseTaskQuery(url.Values{"search": {"invoice "}})
	assert.Equal(t, []string{"3"}, ids(services.FilterTasks(tasks, trailing)))
}
