// Package filter derives the pending and completed views of a task snapshot
// from the session's filter state.
package filter

import (
	"time"

	"github.com/sandeepkv93/taskly/internal/model"
)

type SectionKind string

const (
	SectionPending   SectionKind = "Pending"
	SectionCompleted SectionKind = "Completed"
)

type Section struct {
	Kind  SectionKind
	Tasks []model.Task
}

// Partition is the result of one evaluation. CompletedSuppressed is set
// while the overdue filter is active; whether to draw the section is left to
// the caller.
type Partition struct {
	Pending             []model.Task
	Completed           []model.Task
	CompletedSuppressed bool
}

func (p Partition) HasPending() bool {
	return len(p.Pending) > 0
}

func (p Partition) HasCompleted() bool {
	return !p.CompletedSuppressed && len(p.Completed) > 0
}

// Sections lists the relevant sections in display order. The pending section
// is always present; the completed one is dropped when suppressed.
func (p Partition) Sections() []Section {
	out := []Section{{Kind: SectionPending, Tasks: p.Pending}}
	if !p.CompletedSuppressed {
		out = append(out, Section{Kind: SectionCompleted, Tasks: p.Completed})
	}
	return out
}

// Pending keeps undone tasks matching the category and temporal filters, in
// snapshot order.
func Pending(tasks []model.Task, f model.FilterState, cal Calendar, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Done || !matchesCategory(t, f) || !matchesTemporal(t, f, cal, now, true) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Completed keeps done tasks matching the category, today and week filters.
// The overdue filter does not apply to completed tasks.
func Completed(tasks []model.Task, f model.FilterState, cal Calendar, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Done || !matchesCategory(t, f) || !matchesTemporal(t, f, cal, now, false) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func Evaluate(tasks []model.Task, f model.FilterState, cal Calendar, now time.Time) Partition {
	return Partition{
		Pending:             Pending(tasks, f, cal, now),
		Completed:           Completed(tasks, f, cal, now),
		CompletedSuppressed: f.OverdueOnly,
	}
}

func matchesCategory(t model.Task, f model.FilterState) bool {
	return !f.HasCategory() || t.Category == f.ActiveCategory
}

func matchesTemporal(t model.Task, f model.FilterState, cal Calendar, now time.Time, applyOverdue bool) bool {
	if !f.TodayOnly && !f.ThisWeekOnly && !(applyOverdue && f.OverdueOnly) {
		return true
	}
	if !t.HasDueDate() {
		return false
	}
	due := *t.DueDate
	if f.TodayOnly && !cal.IsToday(due, now) {
		return false
	}
	if f.ThisWeekOnly && !cal.IsThisWeek(due, now) {
		return false
	}
	if applyOverdue && f.OverdueOnly && !t.IsOverdue(now) {
		return false
	}
	return true
}

// Engine binds a calendar and a clock so callers can re-evaluate on every
// snapshot or filter change without threading time through.
type Engine struct {
	cal Calendar
	now func() time.Time
}

func NewEngine(cal Calendar, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{cal: cal, now: now}
}

func (e *Engine) Calendar() Calendar {
	return e.cal
}

func (e *Engine) Pending(tasks []model.Task, f model.FilterState) []model.Task {
	return Pending(tasks, f, e.cal, e.now())
}

func (e *Engine) Completed(tasks []model.Task, f model.FilterState) []model.Task {
	return Completed(tasks, f, e.cal, e.now())
}

func (e *Engine) Evaluate(tasks []model.Task, f model.FilterState) Partition {
	return Evaluate(tasks, f, e.cal, e.now())
}
