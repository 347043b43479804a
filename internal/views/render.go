package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header       string
	FilterBar    string
	LeftPane     string
	RightPane    string
	StatusLine   string
	IsError      bool
	Footer       string
	Notification string
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Padding(0, 1)
	sectionStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
)

func RenderApp(data AppData) string {
	left := panelStyle.Width(58).Render(data.LeftPane)
	row := left
	if strings.TrimSpace(data.RightPane) != "" {
		right := panelStyle.Width(48).Render(data.RightPane)
		row = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	status := statusStyle.Render(data.StatusLine)
	if data.IsError {
		status = errorStyle.Render(data.StatusLine)
	}

	lines := []string{headerStyle.Render(data.Header)}
	if data.FilterBar != "" {
		lines = append(lines, data.FilterBar)
	}
	lines = append(lines, row, status)
	if data.Notification != "" {
		lines = append(lines, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
