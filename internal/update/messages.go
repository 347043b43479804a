package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/tasks"
)

// SnapshotMsg carries one tasks.Update into the UI loop.
type SnapshotMsg struct {
	Tasks []model.Task
	Err   error
}

type ReminderFiredMsg struct {
	Reminder model.Reminder
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// writeResultMsg reports the outcome of a store write started from the UI.
type writeResultMsg struct {
	Text string
	Err  error
}

func waitForSnapshotCmd(ch <-chan tasks.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Tasks: u.Tasks, Err: u.Err}
	}
}

func waitForReminderCmd(ch <-chan model.Reminder) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderFiredMsg{Reminder: r}
	}
}
