package engine

import (
	"math"
	"strings"
	"time"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

const dueSoonDays = 3

// Stats completion summary of a task list
type Stats struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	InProgress      int `json:"inProgress"`
	Overdue         int `json:"overdue"`
	ProgressPercent int `json:"progressPercent"`
}

// ProductProgress completion of one product's tasks
type ProductProgress struct {
	ProductID ident.ID `json:"productId"`
	Name      string   `json:"name"`
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Percent   int      `json:"percent"`
}

// TaskGroup tasks of one product; ProductID "" holds unassigned tasks
type TaskGroup struct {
	ProductID ident.ID      `json:"productId"`
	Name      string        `json:"name"`
	Tasks     []entity.Task `json:"tasks"`
}

// TaskFilter empty fields are inactive
type TaskFilter struct {
	Search    string   `form:"q"`
	Status    string   `form:"status"`
	ProductID ident.ID `form:"product"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func plannedEnd(t entity.Task, loc *time.Location) (time.Time, bool) {
	if t.PlannedEndDate == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(entity.DateLayout, t.PlannedEndDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// IsOverdue open task whose planned end date is in the past.
func IsOverdue(t entity.Task, now time.Time) bool {
	if t.Status == entity.TaskComplete {
		return false
	}
	end, ok := plannedEnd(t, now.Location())
	return ok && end.Before(startOfDay(now))
}

// IsDueSoon open task whose planned end date falls within the next three days.
func IsDueSoon(t entity.Task, now time.Time) bool {
	if t.Status == entity.TaskComplete {
		return false
	}
	end, ok := plannedEnd(t, now.Location())
	if !ok {
		return false
	}
	today := startOfDay(now)
	return !end.Before(today) && !end.After(today.AddDate(0, 0, dueSoonDays))
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func ComputeStats(tasks []entity.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case entity.TaskComplete:
			s.Completed++
		case entity.TaskInProgress:
			s.InProgress++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
	}
	s.ProgressPercent = percent(s.Completed, s.Total)
	return s
}

func DueSoon(tasks []entity.Task, now time.Time) []entity.Task {
	out := []entity.Task{}
	for _, t := range tasks {
		if IsDueSoon(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// ProductProgressOf per product completion, in product order.
func ProductProgressOf(o entity.Order) []ProductProgress {
	out := make([]ProductProgress, 0, len(o.Products))
	for _, p := range o.Products {
		pp := ProductProgress{ProductID: p.ID, Name: p.Name}
		for _, t := range o.Tasks {
			if t.ProductID != p.ID {
				continue
			}
			pp.Total++
			if t.Status == entity.TaskComplete {
				pp.Completed++
			}
		}
		pp.Percent = percent(pp.Completed, pp.Total)
		out = append(out, pp)
	}
	return out
}

// GroupByProduct groups tasks in product order, keeping task order inside a
// group. Tasks without a known product land in a trailing unassigned group.
func GroupByProduct(o entity.Order, tasks []entity.Task) []TaskGroup {
	groups := make([]TaskGroup, 0, len(o.Products)+1)
	known := make(map[ident.ID]int, len(o.Products))
	for _, p := range o.Products {
		known[p.ID] = len(groups)
		groups = append(groups, TaskGroup{ProductID: p.ID, Name: p.Name, Tasks: []entity.Task{}})
	}
	var unassigned []entity.Task
	for _, t := range tasks {
		if i, ok := known[t.ProductID]; ok {
			groups[i].Tasks = append(groups[i].Tasks, t)
			continue
		}
		unassigned = append(unassigned, t)
	}
	if len(unassigned) > 0 {
		groups = append(groups, TaskGroup{Name: "Unassigned", Tasks: unassigned})
	}
	return groups
}

// Matches reports whether t satisfies every active filter.
func (f TaskFilter) Matches(t entity.Task) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if !f.ProductID.IsZero() && t.ProductID != f.ProductID {
		return false
	}
	return true
}

func FilterTasks(tasks []entity.Task, f TaskFilter) []entity.Task {
	out := []entity.Task{}
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// View everything the editor renders for one order, derived on demand
type View struct {
	Stats           Stats             `json:"stats"`
	DueSoon         []entity.Task     `json:"dueSoon"`
	ProductProgress []ProductProgress `json:"productProgress"`
	Groups          []TaskGroup       `json:"groups"`
	Filtered        []entity.Task     `json:"filtered"`
}

func BuildView(o entity.Order, f TaskFilter, now time.Time) View {
	filtered := FilterTasks(o.Tasks, f)
	return View{
		Stats:           ComputeStats(o.Tasks, now),
		DueSoon:         DueSoon(o.Tasks, now),
		ProductProgress: ProductProgressOf(o),
		Groups:          GroupByProduct(o, filtered),
		Filtered:        filtered,
	}
}
