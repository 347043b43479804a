package views

import (
	"strings"
	"testing"
)

func TestRenderTaskListSections(t *testing.T) {
	out := RenderTaskList([]SectionData{
		{Title: "Pending", Rows: []TaskRowData{
			{ID: "a", Title: "pay rent", Category: "🏠", Due: "Feb 10 09:00", Overdue: true, Selected: true},
		}},
		{Title: "Completed"},
	})
	for _, want := range []string{"Pending (1)", "> [ ] 🏠 pay rent", "(overdue)", "Completed (0)", "(none)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderDetailWithoutSelection(t *testing.T) {
	if out := RenderDetail(DetailData{}); !strings.Contains(out, "(no selection)") {
		t.Fatalf("unexpected detail output: %q", out)
	}
	out := RenderDetail(DetailData{ID: "a", Title: "x", Category: "📝", Created: "Feb 9"})
	if !strings.Contains(out, "due: none") || !strings.Contains(out, "status: pending") {
		t.Fatalf("unexpected detail output: %q", out)
	}
}

func TestRenderFilterBarListsSegments(t *testing.T) {
	out := RenderFilterBar(FilterBarData{
		Categories:     []string{"📝", "💼", "🏠", "🏃🏻"},
		ActiveCategory: "💼",
		Modes:          []string{"all", "today", "week", "overdue"},
		ActiveMode:     "week",
	})
	for _, want := range []string{"0 all", "2 💼", "4 🏃🏻", "overdue"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in filter bar: %q", want, out)
		}
	}
}
