package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

var now = time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)

const todayStr = "2026-03-09"

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func sampleOrder() entity.Order {
	return entity.Order{
		ID:     "o1",
		Status: entity.StatusPending,
		Products: entity.Products{
			{ID: "p1", Name: "Polo", Status: "Pending"},
			{ID: "p2", Name: "Hoodie", Status: "Pending"},
		},
		Tasks: entity.Tasks{
			{ID: "1", Name: "Cutting", Status: entity.TaskToDo, ProductID: "p1"},
			{ID: "2", Name: "Sewing", Status: entity.TaskInProgress, Progress: 40, ProductID: "p1"},
			{ID: "3", Name: "Packing", Status: entity.TaskComplete, Progress: 100, ProductID: "p2"},
		},
	}
}

func assertConsistent(t *testing.T, task entity.Task) {
	t.Helper()
	assert.Equal(t, task.Progress == 100, task.Status == entity.TaskComplete, "progress 100 iff COMPLETE: %+v", task)
	assert.Equal(t, task.Progress == 0, task.Status == entity.TaskToDo, "progress 0 iff TO DO: %+v", task)
}

func TestUpdateTaskProgressToHundredCompletes(t *testing.T) {
	o := entity.Order{
		Products: entity.Products{{ID: "p1"}},
		Tasks:    entity.Tasks{{ID: "1", Status: entity.TaskToDo, ProductID: "p1"}},
	}

	out, err := UpdateTask(o, "1", TaskPatch{Progress: intp(100)}, now)
	require.NoError(t, err)

	task := out.Tasks[0]
	assert.Equal(t, entity.TaskComplete, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, todayStr, task.ActualEndDate)

	assert.Equal(t, entity.TaskToDo, o.Tasks[0].Status, "input must not be mutated")
}

func TestStatusAndProgressPathsAgree(t *testing.T) {
	for _, progress := range []int{0, 1, 37, 99, 100} {
		o := sampleOrder()
		byProgress, err := UpdateTask(o, "1", TaskPatch{Progress: intp(progress)}, now)
		require.NoError(t, err)
		got := byProgress.Tasks[0]
		assertConsistent(t, got)

		status := got.Status
		byStatus, err := UpdateTask(o, "1", TaskPatch{Status: &status, Progress: intp(progress)}, now)
		require.NoError(t, err)
		assert.Equal(t, got.Status, byStatus.Tasks[0].Status, "progress %d", progress)
		assert.Equal(t, got.Progress, byStatus.Tasks[0].Progress, "progress %d", progress)
		assert.Equal(t, got.ActualEndDate, byStatus.Tasks[0].ActualEndDate, "progress %d", progress)
	}
}

func TestStatusDrivenDerivations(t *testing.T) {
	o := sampleOrder()

	out, err := UpdateTask(o, "2", TaskPatch{Status: strp(entity.TaskComplete)}, now)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Tasks[1].Progress)
	assert.Equal(t, todayStr, out.Tasks[1].ActualEndDate)

	out, err = UpdateTask(o, "3", TaskPatch{Status: strp(entity.TaskToDo)}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Tasks[2].Progress)

	out, err = UpdateTask(o, "1", TaskPatch{Status: strp(entity.TaskInProgress)}, now)
	require.NoError(t, err)
	assert.Equal(t, todayStr, out.Tasks[0].ActualStartDate)
	assertConsistent(t, out.Tasks[0])
}

func TestActualDatesAreNotOverwritten(t *testing.T) {
	o := sampleOrder()
	o.Tasks[1].ActualStartDate = "2026-02-01"

	out, err := UpdateTask(o, "2", TaskPatch{Progress: intp(60)}, now)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", out.Tasks[1].ActualStartDate)
	assert.Equal(t, 60, out.Tasks[1].Progress)
}

func TestProgressIsClamped(t *testing.T) {
	o := sampleOrder()
	out, err := UpdateTask(o, "2", TaskPatch{Progress: intp(250)}, now)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Tasks[1].Progress)
	assert.Equal(t, entity.TaskComplete, out.Tasks[1].Status)

	out, err = UpdateTask(o, "2", TaskPatch{Progress: intp(-5)}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Tasks[1].Progress)
	assert.Equal(t, entity.TaskToDo, out.Tasks[1].Status)
}

func TestUpdateTaskRejectsUnknownStatus(t *testing.T) {
	o := sampleOrder()
	out, err := UpdateTask(o, "1", TaskPatch{Status: strp("DONE")}, now)
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)
	assert.Equal(t, o, out)

	_, err = UpdateTask(o, "missing", TaskPatch{Name: strp("x")}, now)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCycleTaskStatus(t *testing.T) {
	o := sampleOrder()
	want := []string{entity.TaskInProgress, entity.TaskComplete, entity.TaskToDo, entity.TaskInProgress}
	for _, status := range want {
		var err error
		o, err = CycleTaskStatus(o, "1", now)
		require.NoError(t, err)
		assert.Equal(t, status, o.Tasks[0].Status)
		assertConsistent(t, o.Tasks[0])
	}
}

func TestAddTaskResolvesProduct(t *testing.T) {
	o := sampleOrder()

	out, task := AddTask(o, nil, "p2", "p1", now)
	assert.Equal(t, ident.ID("p2"), task.ProductID)
	assert.Len(t, out.Tasks, 4)
	assert.Len(t, o.Tasks, 3)

	_, task = AddTask(o, nil, "", "p2", now)
	assert.Equal(t, ident.ID("p2"), task.ProductID)

	_, task = AddTask(o, nil, "", "", now)
	assert.Equal(t, ident.ID("p1"), task.ProductID)

	_, task = AddTask(entity.Order{}, nil, "", "", now)
	assert.True(t, task.ProductID.IsZero())
}

func TestAddTaskDefaults(t *testing.T) {
	out, task := AddTask(sampleOrder(), &entity.Task{Name: "Dyeing", Responsible: "Mill A"}, "", "", now)

	assert.Equal(t, "Dyeing", task.Name)
	assert.Equal(t, "Mill A", task.Responsible)
	assert.Equal(t, entity.TaskToDo, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Equal(t, todayStr, task.PlannedStartDate)
	assert.Equal(t, "2026-03-16", task.PlannedEndDate)
	assert.Len(t, string(task.ID), 32)
	assert.Equal(t, task, out.Tasks[len(out.Tasks)-1])

	_, other := AddTask(out, nil, "", "", now)
	assert.NotEqual(t, task.ID, other.ID, "ids created in the same instant must differ")
}

func TestMoveTask(t *testing.T) {
	o := sampleOrder()

	out, err := MoveTask(o, "1", DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, o, out, "moving the first task up is a no-op")

	out, err = MoveTask(o, "3", DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, o, out, "moving the last task down is a no-op")

	out, err = MoveTask(o, "2", DirectionUp)
	require.NoError(t, err)
	require.Len(t, out.Tasks, len(o.Tasks))
	assert.Equal(t, []ident.ID{"2", "1", "3"}, taskIDs(out))
	assert.ElementsMatch(t, o.Tasks, out.Tasks)

	out, err = MoveTask(o, "2", DirectionDown)
	require.NoError(t, err)
	assert.Equal(t, []ident.ID{"1", "3", "2"}, taskIDs(out))

	_, err = MoveTask(o, "2", "sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestRemoveTask(t *testing.T) {
	o := sampleOrder()
	out, err := RemoveTask(o, "2")
	require.NoError(t, err)
	assert.Equal(t, []ident.ID{"1", "3"}, taskIDs(out))
	assert.Len(t, o.Tasks, 3)

	_, err = RemoveTask(o, "9")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func taskIDs(o entity.Order) []ident.ID {
	ids := make([]ident.ID, len(o.Tasks))
	for i, t := range o.Tasks {
		ids[i] = t.ID
	}
	return ids
}
