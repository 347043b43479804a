package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskly/internal/commands"
	"github.com/sandeepkv93/taskly/internal/model"
)

var errNoSelection = &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		case tea.KeySpace:
			m.commandInput.SetValue(m.commandInput.Value() + " ")
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m *Model) closePalette() {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m, nil
	}

	var pending tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if m.tasks == nil {
				return commands.Result{}, errors.New("task store unavailable")
			}
			in := model.NewTask{Title: a.Title, Category: m.Filters.ActiveCategory, Notes: a.Notes}
			if a.Slot >= 0 {
				in.Category = m.Categories.At(a.Slot)
			}
			if a.Due != nil {
				in.DueDate = a.Due.Resolve(m.now(), m.engine.Calendar().Location)
			}
			svc, ctx := m.tasks, m.ctx
			pending = func() tea.Msg {
				task, err := svc.Add(ctx, in)
				if err != nil {
					return writeResultMsg{Err: fmt.Errorf("add %q: %w", in.Title, err)}
				}
				return writeResultMsg{Text: fmt.Sprintf("added: %s %s", task.Category, task.Title)}
			}
			return commands.Result{Message: fmt.Sprintf("adding: %s", a.Title)}, nil
		},
		Done: func(a commands.TargetArgs) (commands.Result, error) {
			task, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			pending = m.setDoneCmd(task, true)
			return commands.Result{Message: fmt.Sprintf("completing: %s", task.Title)}, nil
		},
		Undo: func(a commands.TargetArgs) (commands.Result, error) {
			task, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			pending = m.setDoneCmd(task, false)
			return commands.Result{Message: fmt.Sprintf("reopening: %s", task.Title)}, nil
		},
		Delete: func(a commands.TargetArgs) (commands.Result, error) {
			task, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			pending = m.deleteCmd(task)
			return commands.Result{Message: fmt.Sprintf("deleting: %s", task.Title)}, nil
		},
		Due: func(a commands.DueArgs) (commands.Result, error) {
			task, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if m.tasks == nil {
				return commands.Result{}, errors.New("task store unavailable")
			}
			due := a.When.Resolve(m.now(), m.engine.Calendar().Location)
			svc, ctx := m.tasks, m.ctx
			pending = func() tea.Msg {
				if _, err := svc.SetDueDate(ctx, task.ID, due); err != nil {
					return writeResultMsg{Err: fmt.Errorf("due %q: %w", task.Title, err)}
				}
				if due == nil {
					return writeResultMsg{Text: fmt.Sprintf("due date cleared: %s", task.Title)}
				}
				return writeResultMsg{Text: fmt.Sprintf("due %s: %s", formatDue(due, m.engine.Calendar().Location), task.Title)}
			}
			return commands.Result{Message: fmt.Sprintf("updating due date: %s", task.Title)}, nil
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			task, err := m.resolveTarget(a.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if m.tasks == nil {
				return commands.Result{}, errors.New("task store unavailable")
			}
			patch := model.Patch{Title: a.Title, Notes: a.Notes}
			if a.Slot >= 0 {
				cat := m.Categories.At(a.Slot)
				patch.Category = &cat
			}
			svc, ctx := m.tasks, m.ctx
			pending = func() tea.Msg {
				updated, err := svc.Update(ctx, task.ID, patch)
				if err != nil {
					return writeResultMsg{Err: fmt.Errorf("edit %q: %w", task.Title, err)}
				}
				return writeResultMsg{Text: fmt.Sprintf("edited: %s %s", updated.Category, updated.Title)}
			}
			return commands.Result{Message: fmt.Sprintf("editing: %s", task.Title)}, nil
		},
		Show: func(a commands.ShowArgs) (commands.Result, error) {
			m.Filters = m.Filters.WithMode(a.Mode)
			m.refreshPartition()
			return commands.Result{Message: fmt.Sprintf("showing %s", a.Mode)}, nil
		},
		Category: func(a commands.CategoryArgs) (commands.Result, error) {
			if m.settings == nil {
				return commands.Result{}, errors.New("settings unavailable")
			}
			s, old, err := m.settings.SetCategory(a.Slot, a.Symbol)
			if err != nil {
				return commands.Result{}, err
			}
			m.Categories = s.Categories
			if m.tasks != nil {
				m.tasks.SetCategories(s.Categories)
			}
			if m.Filters.ActiveCategory == old {
				m.Filters = m.Filters.WithCategory(a.Symbol)
			}
			m.refreshPartition()
			return commands.Result{Message: fmt.Sprintf("category %d: %s -> %s", a.Slot+1, old, a.Symbol)}, nil
		},
		Daily: func(a commands.DailyArgs) (commands.Result, error) {
			if m.settings != nil {
				if _, err := m.settings.SetDailyReminder(a.Enabled); err != nil {
					return commands.Result{}, err
				}
			}
			m.DailyEnabled = a.Enabled
			if m.daily == nil {
				return commands.Result{Message: "daily reminder saved"}, nil
			}
			if !a.Enabled {
				m.daily.DisableDaily()
				return commands.Result{Message: "daily reminder off"}, nil
			}
			r := m.daily.EnableDaily()
			return commands.Result{Message: fmt.Sprintf("daily reminder on, next %s", formatDue(&r.FireAt, m.engine.Calendar().Location))}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.closePalette()
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.closePalette()
	return m, pending
}

// resolveTarget finds the task named by an id or unique id prefix, or the
// selected task when target is empty.
func (m Model) resolveTarget(target string) (model.Task, error) {
	if target == "" {
		task, ok := m.selected()
		if !ok {
			return model.Task{}, errNoSelection
		}
		return task, nil
	}
	var match model.Task
	n := 0
	for _, t := range m.Snapshot {
		if t.ID == target {
			return t, nil
		}
		if strings.HasPrefix(t.ID, target) {
			match = t
			n++
		}
	}
	switch n {
	case 1:
		return match, nil
	case 0:
		return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task matches %q", target)}
	default:
		return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("%q matches %d tasks", target, n)}
	}
}
