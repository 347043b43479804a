package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTitleRequired    = errors.New("model: task title is required")
	ErrCategoryRequired = errors.New("model: task category is required")
	ErrEmptyPatch       = errors.New("model: patch has no fields")
	ErrConflictingDue   = errors.New("model: patch both sets and clears due date")
)

// Task is one to-do record as owned by the task store. Today, this-week and
// overdue are derived from DueDate at read time and never stored.
type Task struct {
	ID        string
	Title     string
	Category  string
	Done      bool
	DueDate   *time.Time
	Notes     string
	CreatedAt time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrCategoryRequired
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

func (t Task) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

// IsOverdue reports a pending task whose due date is strictly before now.
// Completed tasks are never overdue.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Done && t.HasDueDate() && t.DueDate.Before(now)
}

// NewTask carries the user-entered fields of a task before the store assigns
// its id and creation time.
type NewTask struct {
	Title    string
	Category string
	DueDate  *time.Time
	Notes    string
}

func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(n.Category) == "" {
		return ErrCategoryRequired
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title        *string
	Category     *string
	Done         *bool
	DueDate      *time.Time
	ClearDueDate bool
	Notes        *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Done == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Notes == nil
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrCategoryRequired
	}
	if p.DueDate != nil && p.ClearDueDate {
		return fmt.Errorf("%w: %s", ErrConflictingDue, p.DueDate.Format(time.RFC3339))
	}
	return nil
}

// Apply returns a copy of t with the patch applied. Identity and creation
// time are never touched.
func (p Patch) Apply(t Task) Task {
	out := t
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Done != nil {
		out.Done = *p.Done
	}
	if p.ClearDueDate {
		out.DueDate = nil
	}
	if p.DueDate != nil {
		due := *p.DueDate
		out.DueDate = &due
	}
	if p.Notes != nil {
		out.Notes = strings.TrimSpace(*p.Notes)
	}
	return out
}

func DonePatch(done bool) Patch {
	return Patch{Done: &done}
}

func DueDatePatch(due *time.Time) Patch {
	if due == nil {
		return Patch{ClearDueDate: true}
	}
	d := *due
	return Patch{DueDate: &d}
}
