package views

import (
	"fmt"
	"strings"
)

type FilterBarData struct {
	Categories     []string
	ActiveCategory string
	Modes          []string
	ActiveMode     string
}

type TaskRowData struct {
	ID       string
	Title    string
	Category string
	Due      string
	Overdue  bool
	Done     bool
	Selected bool
}

type SectionData struct {
	Title string
	Rows  []TaskRowData
}

type DetailData struct {
	ID       string
	Title    string
	Category string
	Due      string
	Created  string
	Done     bool
	Notes    string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

// RenderFilterBar draws the category segments followed by the temporal
// modes. The "all" category segment is active when no category is.
func RenderFilterBar(data FilterBarData) string {
	segments := make([]string, 0, len(data.Categories)+1+len(data.Modes))
	segments = append(segments, segment("0 all", data.ActiveCategory == ""))
	for i, c := range data.Categories {
		segments = append(segments, segment(fmt.Sprintf("%d %s", i+1, c), c == data.ActiveCategory))
	}
	segments = append(segments, " | ")
	for _, m := range data.Modes {
		segments = append(segments, segment(m, m == data.ActiveMode))
	}
	return strings.Join(segments, "")
}

func segment(label string, active bool) string {
	if active {
		return activeStyle.Render(label)
	}
	return inactiveStyle.Render(label)
}

func RenderTaskList(sections []SectionData) string {
	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%s (%d)", sec.Title, len(sec.Rows))))
		b.WriteString("\n")
		if len(sec.Rows) == 0 {
			b.WriteString("  (none)\n")
			continue
		}
		for _, row := range sec.Rows {
			b.WriteString(renderRow(row))
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderRow(row TaskRowData) string {
	cursor := "  "
	if row.Selected {
		cursor = "> "
	}
	check := "[ ]"
	if row.Done {
		check = "[x]"
	}
	title := row.Title
	if row.Done {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s%s %s %s", cursor, check, row.Category, title)
	if row.Due != "" {
		due := "due " + row.Due
		if row.Overdue {
			due = overdueStyle.Render(due + " (overdue)")
		}
		line += "  " + due
	}
	return line
}

func RenderDetail(data DetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	state := "pending"
	if data.Done {
		state = "done"
	}
	due := data.Due
	if due == "" {
		due = "none"
	}
	out := fmt.Sprintf("details:\nid: %s\ntitle: %s\ncategory: %s\nstatus: %s\ndue: %s\ncreated: %s",
		data.ID, data.Title, data.Category, state, due, data.Created)
	if notes := RenderMarkdown(data.Notes); notes != "" {
		out += "\n\nnotes:\n" + notes
	}
	return out
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

func RenderNotification(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("reminder: %s: %s", title, body)
}
