package update

import (
	"time"

	"github.com/sandeepkv93/taskly/internal/filter"
	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/views"
)

const dueLayout = "Mon Jan 2 15:04"

func (m Model) renderFilterBar() string {
	return views.RenderFilterBar(views.FilterBarData{
		Categories:     m.Categories,
		ActiveCategory: m.Filters.ActiveCategory,
		Modes: []string{
			string(model.TemporalAll),
			string(model.TemporalToday),
			string(model.TemporalWeek),
			string(model.TemporalOverdue),
		},
		ActiveMode: string(m.Filters.Mode()),
	})
}

func (m Model) renderTaskList() string {
	now := m.now()
	loc := m.engine.Calendar().Location
	selected := m.SelectedTaskID

	sections := make([]views.SectionData, 0, 2)
	for _, sec := range m.Partition.Sections() {
		data := views.SectionData{Title: sectionTitle(sec.Kind)}
		for _, t := range sec.Tasks {
			data.Rows = append(data.Rows, views.TaskRowData{
				ID:       t.ID,
				Title:    t.Title,
				Category: t.Category,
				Due:      formatDue(t.DueDate, loc),
				Overdue:  t.IsOverdue(now),
				Done:     t.Done,
				Selected: t.ID == selected,
			})
		}
		sections = append(sections, data)
	}
	return views.RenderTaskList(sections)
}

func (m Model) renderDetail() string {
	t, ok := m.selected()
	if !ok {
		return views.RenderDetail(views.DetailData{})
	}
	loc := m.engine.Calendar().Location
	return views.RenderDetail(views.DetailData{
		ID:       t.ID,
		Title:    t.Title,
		Category: t.Category,
		Due:      formatDue(t.DueDate, loc),
		Created:  t.CreatedAt.In(loc).Format(dueLayout),
		Done:     t.Done,
		Notes:    t.Notes,
	})
}

func sectionTitle(kind filter.SectionKind) string {
	return string(kind)
}

func formatDue(due *time.Time, loc *time.Location) string {
	if due == nil || due.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return due.In(loc).Format(dueLayout)
}
