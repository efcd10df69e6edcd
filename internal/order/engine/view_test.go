package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

func datedOrder() entity.Order {
	o := sampleOrder()
	o.Tasks[0].PlannedEndDate = "2026-03-01" // overdue
	o.Tasks[1].PlannedEndDate = "2026-03-11" // due soon
	o.Tasks[2].PlannedEndDate = "2026-03-02" // complete, neither
	o.Tasks = append(o.Tasks,
		entity.Task{ID: "4", Name: "Cutting trims", Status: entity.TaskToDo, PlannedEndDate: "2026-03-12", ProductID: "p2"},
		entity.Task{ID: "5", Name: "Labels", Status: entity.TaskToDo, PlannedEndDate: "2026-03-13"},
	)
	return o
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(datedOrder().Tasks, now)
	assert.Equal(t, Stats{Total: 5, Completed: 1, InProgress: 1, Overdue: 1, ProgressPercent: 20}, s)

	assert.Equal(t, Stats{}, ComputeStats(nil, now))
}

func TestDueSoon(t *testing.T) {
	due := DueSoon(datedOrder().Tasks, now)
	ids := make([]ident.ID, len(due))
	for i, task := range due {
		ids[i] = task.ID
	}
	assert.Equal(t, []ident.ID{"2", "4"}, ids)

	o := datedOrder()
	o.Tasks[0].PlannedEndDate = todayStr
	assert.True(t, IsDueSoon(o.Tasks[0], now))
	assert.False(t, IsOverdue(o.Tasks[0], now))
}

func TestProductProgressRounds(t *testing.T) {
	o := entity.Order{
		Products: entity.Products{{ID: "p1", Name: "Polo"}, {ID: "p2", Name: "Hoodie"}},
		Tasks: entity.Tasks{
			{ID: "1", Status: entity.TaskComplete, Progress: 100, ProductID: "p1"},
			{ID: "2", Status: entity.TaskToDo, ProductID: "p1"},
			{ID: "3", Status: entity.TaskToDo, ProductID: "p1"},
		},
	}
	pp := ProductProgressOf(o)
	require.Len(t, pp, 2)
	assert.Equal(t, 33, pp[0].Percent)
	assert.Equal(t, 3, pp[0].Total)
	assert.Equal(t, 0, pp[1].Percent)
	assert.Equal(t, 0, pp[1].Total)
}

func TestGroupByProduct(t *testing.T) {
	o := datedOrder()
	groups := GroupByProduct(o, o.Tasks)
	require.Len(t, groups, 3)
	assert.Equal(t, ident.ID("p1"), groups[0].ProductID)
	assert.Len(t, groups[0].Tasks, 2)
	assert.Equal(t, ident.ID("p2"), groups[1].ProductID)
	assert.Len(t, groups[1].Tasks, 2)
	assert.True(t, groups[2].ProductID.IsZero())
	assert.Equal(t, ident.ID("5"), groups[2].Tasks[0].ID)
}

func TestFilterTasksIsConjunction(t *testing.T) {
	tasks := datedOrder().Tasks
	filters := []TaskFilter{
		{},
		{Search: "cut"},
		{Status: entity.TaskToDo},
		{ProductID: "p2"},
		{Search: "CUT", Status: entity.TaskToDo},
		{Search: "cut", ProductID: "p2"},
		{Search: "cut", Status: entity.TaskToDo, ProductID: "p2"},
		{Search: "cut", Status: entity.TaskComplete, ProductID: "p1"},
	}
	for _, f := range filters {
		got := FilterTasks(tasks, f)
		var want []ident.ID
		for _, task := range tasks {
			ok := TaskFilter{Search: f.Search}.Matches(task) &&
				TaskFilter{Status: f.Status}.Matches(task) &&
				TaskFilter{ProductID: f.ProductID}.Matches(task)
			if ok {
				want = append(want, task.ID)
			}
		}
		var gotIDs []ident.ID
		for _, task := range got {
			gotIDs = append(gotIDs, task.ID)
		}
		assert.Equal(t, want, gotIDs, "filter %+v", f)
	}

	got := FilterTasks(tasks, TaskFilter{Search: "cut", Status: entity.TaskToDo, ProductID: "p2"})
	require.Len(t, got, 1)
	assert.Equal(t, ident.ID("4"), got[0].ID)
}

func TestBuildView(t *testing.T) {
	v := BuildView(datedOrder(), TaskFilter{Status: entity.TaskToDo}, now)
	assert.Equal(t, 5, v.Stats.Total)
	assert.Len(t, v.Filtered, 3)
	assert.Len(t, v.ProductProgress, 2)
	assert.Len(t, v.Groups, 3)
}
