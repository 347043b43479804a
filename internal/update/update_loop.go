package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/reminder"
	"github.com/sandeepkv93/taskly/internal/views"
)

func (m Model) Init() tea.Cmd {
	var updates tea.Cmd
	if m.tasks != nil {
		updates = waitForSnapshotCmd(m.tasks.Updates())
	}
	return tea.Batch(updates, waitForReminderCmd(m.reminders))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case SnapshotMsg:
		var next tea.Cmd
		if m.tasks != nil {
			next = waitForSnapshotCmd(m.tasks.Updates())
		}
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, next
		}
		m.Snapshot = typed.Tasks
		m.refreshPartition()
		return m, next
	case ReminderFiredMsg:
		return m.onReminderFired(typed.Reminder)
	case writeResultMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: typed.Text}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	switch keyStr {
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Palette:
		m.Palette = CommandPaletteState{Active: true}
		m.commandInput.Focus()
		m.commandInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active"}
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.AllCategories:
		m.Filters = m.Filters.WithCategory("")
		m.refreshPartition()
		return m, nil
	case "1", "2", "3", "4":
		m.selectCategorySlot(int(keyStr[0] - '1'))
		return m, nil
	case m.Keys.Today:
		m.Filters = m.Filters.Toggle(model.TemporalToday)
		m.refreshPartition()
		return m, nil
	case m.Keys.Week:
		m.Filters = m.Filters.Toggle(model.TemporalWeek)
		m.refreshPartition()
		return m, nil
	case m.Keys.Overdue:
		m.Filters = m.Filters.Toggle(model.TemporalOverdue)
		m.refreshPartition()
		return m, nil
	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case m.Keys.Details:
		m.DetailVisible = !m.DetailVisible
		m.syncDetail()
		return m, nil
	case m.Keys.ToggleDone:
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.setDoneCmd(task, !task.Done)
	case m.Keys.Delete:
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.deleteCmd(task)
	}
	if m.DetailVisible {
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd
	}
	return m, nil
}

// selectCategorySlot filters by the symbol in slot; choosing the active
// category again clears the filter. An empty set leaves only "all".
func (m *Model) selectCategorySlot(slot int) {
	symbol := m.Categories.At(slot)
	if symbol == "" || m.Filters.ActiveCategory == symbol {
		m.Filters = m.Filters.WithCategory("")
	} else {
		m.Filters = m.Filters.WithCategory(symbol)
	}
	m.refreshPartition()
}

func (m Model) onReminderFired(r model.Reminder) (tea.Model, tea.Cmd) {
	m.pushReminder(r)
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", r.Title, r.Body)}
	m.logger.Info("reminder fired", zap.String("reminder_id", r.ID), zap.String("task_id", r.TaskID))

	if r.ID == reminder.DailyReminderID && m.DailyEnabled && m.daily != nil {
		m.daily.EnableDaily()
	}

	cmds := []tea.Cmd{waitForReminderCmd(m.reminders)}
	if m.notifier != nil {
		notifier := m.notifier
		cmds = append(cmds, func() tea.Msg {
			if err := notifier.Send(r); err != nil {
				return AppErrorMsg{Err: fmt.Errorf("desktop notification: %w", err)}
			}
			return nil
		})
	}
	return m, tea.Batch(cmds...)
}

func (m Model) setDoneCmd(task model.Task, done bool) tea.Cmd {
	if m.tasks == nil {
		return nil
	}
	svc, ctx := m.tasks, m.ctx
	return func() tea.Msg {
		if _, err := svc.SetDone(ctx, task.ID, done); err != nil {
			return writeResultMsg{Err: fmt.Errorf("update %q: %w", task.Title, err)}
		}
		if done {
			return writeResultMsg{Text: fmt.Sprintf("completed: %s", task.Title)}
		}
		return writeResultMsg{Text: fmt.Sprintf("reopened: %s", task.Title)}
	}
}

func (m Model) deleteCmd(task model.Task) tea.Cmd {
	if m.tasks == nil {
		return nil
	}
	svc, ctx := m.tasks, m.ctx
	return func() tea.Msg {
		if err := svc.Delete(ctx, task.ID); err != nil {
			return writeResultMsg{Err: fmt.Errorf("delete %q: %w", task.Title, err)}
		}
		return writeResultMsg{Text: fmt.Sprintf("deleted: %s", task.Title)}
	}
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	right := ""
	if m.DetailVisible {
		right = m.detailView.View()
	}
	if palette := views.RenderCommandPalette(m.Palette.Active, m.commandInput.Value()); palette != "" {
		right = strings.TrimSpace(strings.Join([]string{right, palette}, "\n\n"))
	}
	if m.HelpVisible {
		right = strings.TrimSpace(strings.Join([]string{right, m.renderHelpView()}, "\n\n"))
	}

	notification := ""
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		notification = views.RenderNotification(last.Title, last.Body)
	}

	daily := "off"
	if m.DailyEnabled {
		daily = "on"
	}
	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("taskly | view: %s | daily: %s", m.viewLabel(), daily),
		FilterBar:    m.renderFilterBar(),
		LeftPane:     m.renderTaskList(),
		RightPane:    right,
		StatusLine:   status,
		IsError:      m.Status.IsError,
		Notification: notification,
		Footer:       "keys: 0-4 category | t today | w week | o overdue | space done | x delete | enter details | / cmd | ? help | q quit",
	})
}

func (m Model) viewLabel() string {
	label := string(m.Filters.Mode())
	if m.Filters.HasCategory() {
		label += " " + m.Filters.ActiveCategory
	}
	return label
}
