// Package update holds the bubbletea model of the taskly terminal UI.
package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/sandeepkv93/taskly/internal/filter"
	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/notify"
	"github.com/sandeepkv93/taskly/internal/settings"
	"github.com/sandeepkv93/taskly/internal/tasks"
)

// TaskService is what the UI needs from tasks.Service.
type TaskService interface {
	Updates() <-chan tasks.Update
	Add(ctx context.Context, in model.NewTask) (model.Task, error)
	SetDone(ctx context.Context, id string, done bool) (model.Task, error)
	SetDueDate(ctx context.Context, id string, due *time.Time) (model.Task, error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Task, error)
	Delete(ctx context.Context, id string) error
	SetCategories(c model.Categories)
}

type SettingsStore interface {
	Load() (settings.Settings, error)
	SetCategory(slot int, symbol string) (settings.Settings, string, error)
	SetDailyReminder(enabled bool) (settings.Settings, error)
}

type DailyReminders interface {
	EnableDaily() model.Reminder
	DisableDaily()
}

type Deps struct {
	Context   context.Context
	Tasks     TaskService
	Settings  SettingsStore
	Daily     DailyReminders
	Engine    *filter.Engine
	Reminders <-chan model.Reminder
	Notifier  notify.DesktopNotifier
	Logger    *zap.Logger
	Now       func() time.Time
}

type StatusBar struct {
	Text    string
	IsError bool
}

type KeyMap struct {
	AllCategories string
	Today         string
	Week          string
	Overdue       string
	ToggleDone    string
	Delete        string
	Details       string
	Palette       string
	Help          string
	Quit          string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	Snapshot       []model.Task
	Partition      filter.Partition
	Filters        model.FilterState
	Categories     model.Categories
	DailyEnabled   bool
	Cursor         int
	SelectedTaskID string
	DetailVisible  bool
	HelpVisible    bool
	Palette        CommandPaletteState
	Status         StatusBar
	ReminderLog    []model.Reminder
	LastError      error
	Keys           KeyMap
	Quitting       bool

	ctx       context.Context
	tasks     TaskService
	settings  SettingsStore
	daily     DailyReminders
	engine    *filter.Engine
	reminders <-chan model.Reminder
	notifier  notify.DesktopNotifier
	logger    *zap.Logger
	now       func() time.Time

	commandInput textinput.Model
	helpModel    help.Model
	detailView   viewport.Model
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		AllCategories: "0",
		Today:         "t",
		Week:          "w",
		Overdue:       "o",
		ToggleDone:    " ",
		Delete:        "x",
		Details:       "enter",
		Palette:       "/",
		Help:          "?",
		Quit:          "q",
	}
}

func NewModel(deps Deps) Model {
	m := Model{
		Categories: model.DefaultCategories.Clone(),
		Keys:       DefaultKeyMap(),
		ctx:        deps.Context,
		tasks:      deps.Tasks,
		settings:   deps.Settings,
		daily:      deps.Daily,
		engine:     deps.Engine,
		reminders:  deps.Reminders,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.engine == nil {
		m.engine = filter.NewEngine(filter.DefaultCalendar(), m.now)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.settings != nil {
		s, err := m.settings.Load()
		if err != nil {
			m.logger.Warn("load settings failed, using defaults", zap.Error(err))
			m.Status = StatusBar{Text: "settings unavailable: " + err.Error(), IsError: true}
		} else {
			m.Categories = s.Categories
			m.DailyEnabled = s.DailyReminder
		}
	}
	if m.tasks != nil {
		m.tasks.SetCategories(m.Categories)
	}
	m.initBubbleComponents()
	m.refreshPartition()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
	m.detailView = viewport.New(46, 16)
}

// refreshPartition re-evaluates the filters against the held snapshot and
// keeps the selection on the same task when it is still visible.
func (m *Model) refreshPartition() {
	m.Partition = m.engine.Evaluate(m.Snapshot, m.Filters)
	rows := m.rows()
	if m.SelectedTaskID != "" {
		for i, t := range rows {
			if t.ID == m.SelectedTaskID {
				m.Cursor = i
				m.syncDetail()
				return
			}
		}
	}
	if m.Cursor >= len(rows) {
		m.Cursor = len(rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.SelectedTaskID = ""
	if len(rows) > 0 {
		m.SelectedTaskID = rows[m.Cursor].ID
	}
	m.syncDetail()
}

// rows flattens the visible sections in display order.
func (m Model) rows() []model.Task {
	out := make([]model.Task, 0, len(m.Partition.Pending)+len(m.Partition.Completed))
	for _, sec := range m.Partition.Sections() {
		out = append(out, sec.Tasks...)
	}
	return out
}

func (m Model) selected() (model.Task, bool) {
	rows := m.rows()
	if m.Cursor < 0 || m.Cursor >= len(rows) {
		return model.Task{}, false
	}
	return rows[m.Cursor], true
}

func (m *Model) moveCursor(delta int) {
	rows := m.rows()
	if len(rows) == 0 {
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(rows) {
		m.Cursor = len(rows) - 1
	}
	m.SelectedTaskID = rows[m.Cursor].ID
	m.syncDetail()
}

func (m *Model) syncDetail() {
	if !m.DetailVisible {
		return
	}
	m.detailView.SetContent(m.renderDetail())
	m.detailView.GotoTop()
}

func (m *Model) pushReminder(r model.Reminder) {
	m.ReminderLog = append(m.ReminderLog, r)
	if len(m.ReminderLog) > 20 {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-20:]
	}
}
