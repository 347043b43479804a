package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/taskly/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.keyBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) keyBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.AllCategories, Action: "all categories"},
		{Key: "1-4", Action: "filter by category slot"},
		{Key: m.Keys.Today, Action: "toggle today"},
		{Key: m.Keys.Week, Action: "toggle this week"},
		{Key: m.Keys.Overdue, Action: "toggle overdue"},
		{Key: "j/k", Action: "move selection"},
		{Key: "space", Action: "toggle done"},
		{Key: m.Keys.Delete, Action: "delete task"},
		{Key: m.Keys.Details, Action: "show details"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) helpBindings() []key.Binding {
	kbs := m.keyBindings()
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
