// Package engine applies edits to an in-memory order document. Every
// operation returns a new order and leaves its input untouched; refusals
// return the input unchanged with a sentinel error.
package engine

import (
	"errors"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrLastProduct       = errors.New("an order must keep at least one product")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidDirection  = errors.New("direction must be up or down")
	ErrUnknownField      = errors.New("unknown product field")
	ErrFactoryConflict   = errors.New("factory id and custom factory are mutually exclusive")
)

const (
	defaultTaskName     = "New Task"
	defaultTaskPriority = "Medium"
	defaultPlanDays     = 7
)

// Move directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// TaskPatch partial task update; nil fields are left alone.
type TaskPatch struct {
	Name             *string   `json:"name"`
	Status           *string   `json:"status"`
	Priority         *string   `json:"priority"`
	Responsible      *string   `json:"responsible"`
	PlannedStartDate *string   `json:"plannedStartDate"`
	PlannedEndDate   *string   `json:"plannedEndDate"`
	ActualStartDate  *string   `json:"actualStartDate"`
	ActualEndDate    *string   `json:"actualEndDate"`
	Notes            *string   `json:"notes"`
	Progress         *int      `json:"progress"`
	ProductID        *ident.ID `json:"productId"`
}

// Source says which field of an edit drives NormalizeTask.
type Source int

const (
	FromStatus Source = iota
	FromProgress
)

func today(now time.Time) string {
	return now.Format(entity.DateLayout)
}

// NormalizeTask keeps status and progress consistent:
// progress 100 iff COMPLETE, progress 0 iff TO DO. The driving field wins;
// the other one is derived from it.
func NormalizeTask(t entity.Task, src Source, now time.Time) entity.Task {
	switch {
	case t.Progress < 0:
		t.Progress = 0
	case t.Progress > 100:
		t.Progress = 100
	}

	if src == FromProgress {
		switch {
		case t.Progress == 100:
			t.Status = entity.TaskComplete
		case t.Progress == 0:
			t.Status = entity.TaskToDo
		default:
			t.Status = entity.TaskInProgress
		}
	}

	switch t.Status {
	case entity.TaskComplete:
		t.Progress = 100
		if t.ActualEndDate == "" {
			t.ActualEndDate = today(now)
		}
	case entity.TaskInProgress:
		if t.Progress <= 0 {
			t.Progress = 1
		} else if t.Progress >= 100 {
			t.Progress = 99
		}
		if t.ActualStartDate == "" {
			t.ActualStartDate = today(now)
		}
	default:
		t.Status = entity.TaskToDo
		t.Progress = 0
	}
	return t
}

// NextStatus is the one-click status cycle.
func NextStatus(status string) string {
	switch status {
	case entity.TaskComplete:
		return entity.TaskToDo
	case entity.TaskToDo:
		return entity.TaskInProgress
	default:
		return entity.TaskComplete
	}
}

// ResolveProductID picks the product of a new task: explicit target, then
// the active product filter, then the first product, else unassigned.
func ResolveProductID(o entity.Order, target, activeFilter ident.ID) ident.ID {
	switch {
	case !target.IsZero():
		return target
	case !activeFilter.IsZero():
		return activeFilter
	case len(o.Products) > 0:
		return o.Products[0].ID
	}
	return ""
}

// AddTask appends a new task built from template (may be nil).
func AddTask(o entity.Order, template *entity.Task, target, activeFilter ident.ID, now time.Time) (entity.Order, entity.Task) {
	t := entity.Task{
		ID:               ident.New(),
		Name:             defaultTaskName,
		Status:           entity.TaskToDo,
		Priority:         defaultTaskPriority,
		PlannedStartDate: today(now),
		PlannedEndDate:   now.AddDate(0, 0, defaultPlanDays).Format(entity.DateLayout),
		ProductID:        ResolveProductID(o, target, activeFilter),
	}
	if template != nil {
		if template.Name != "" {
			t.Name = template.Name
		}
		if template.Priority != "" {
			t.Priority = template.Priority
		}
		if template.Responsible != "" {
			t.Responsible = template.Responsible
		}
		if template.Notes != "" {
			t.Notes = template.Notes
		}
		if template.PlannedStartDate != "" {
			t.PlannedStartDate = template.PlannedStartDate
		}
		if template.PlannedEndDate != "" {
			t.PlannedEndDate = template.PlannedEndDate
		}
	}
	t = NormalizeTask(t, FromStatus, now)

	out := o.Clone()
	out.Tasks = append(out.Tasks, t)
	return out, t
}

func indexOfTask(o entity.Order, id ident.ID) int {
	for i, t := range o.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// UpdateTask merges p into the task and normalizes it. A patch carrying a
// status is status-driven; a patch carrying only progress is progress-driven.
func UpdateTask(o entity.Order, id ident.ID, p TaskPatch, now time.Time) (entity.Order, error) {
	i := indexOfTask(o, id)
	if i < 0 {
		return o, ErrTaskNotFound
	}
	if p.Status != nil && !entity.IsValidTaskStatus(*p.Status) {
		return o, ErrInvalidTaskStatus
	}

	t := o.Tasks[i]
	setString(&t.Name, p.Name)
	setString(&t.Status, p.Status)
	setString(&t.Priority, p.Priority)
	setString(&t.Responsible, p.Responsible)
	setString(&t.PlannedStartDate, p.PlannedStartDate)
	setString(&t.PlannedEndDate, p.PlannedEndDate)
	setString(&t.ActualStartDate, p.ActualStartDate)
	setString(&t.ActualEndDate, p.ActualEndDate)
	setString(&t.Notes, p.Notes)
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.ProductID != nil {
		t.ProductID = *p.ProductID
	}

	src := FromStatus
	if p.Status == nil && p.Progress != nil {
		src = FromProgress
	}

	out := o.Clone()
	out.Tasks[i] = NormalizeTask(t, src, now)
	return out, nil
}

// CycleTaskStatus advances COMPLETE -> TO DO -> IN PROGRESS -> COMPLETE.
func CycleTaskStatus(o entity.Order, id ident.ID, now time.Time) (entity.Order, error) {
	i := indexOfTask(o, id)
	if i < 0 {
		return o, ErrTaskNotFound
	}
	next := NextStatus(o.Tasks[i].Status)
	return UpdateTask(o, id, TaskPatch{Status: &next}, now)
}

func RemoveTask(o entity.Order, id ident.ID) (entity.Order, error) {
	i := indexOfTask(o, id)
	if i < 0 {
		return o, ErrTaskNotFound
	}
	out := o.Clone()
	out.Tasks = append(out.Tasks[:i], out.Tasks[i+1:]...)
	return out, nil
}

// MoveTask swaps the task with its neighbour. Moving past either end is a
// no-op.
func MoveTask(o entity.Order, id ident.ID, direction string) (entity.Order, error) {
	i := indexOfTask(o, id)
	if i < 0 {
		return o, ErrTaskNotFound
	}
	var j int
	switch direction {
	case DirectionUp:
		j = i - 1
	case DirectionDown:
		j = i + 1
	default:
		return o, ErrInvalidDirection
	}
	if j < 0 || j >= len(o.Tasks) {
		return o, nil
	}
	out := o.Clone()
	out.Tasks[i], out.Tasks[j] = out.Tasks[j], out.Tasks[i]
	return out, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
