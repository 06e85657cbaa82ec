package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	Submit      key.Binding
	Toggle      key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Focus       key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	JSON        key.Binding
	Export      key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "scrape"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter/space", "expand/collapse"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "prev section"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next section"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab", "esc"),
		key.WithHelp("tab", "switch focus"),
	),
	ExpandAll: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "expand all"),
	),
	CollapseAll: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "collapse all"),
	),
	JSON: key.NewBinding(
		key.WithKeys("J"),
		key.WithHelp("J", "toggle JSON"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// inputHelp is shown while the URL input has focus.
type inputHelp struct{}

func (inputHelp) ShortHelp() []key.Binding {
	return []key.Binding{keys.Submit, keys.Focus, quitOnly}
}

func (h inputHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// treeHelp is shown while the result tree has focus.
type treeHelp struct{}

func (treeHelp) ShortHelp() []key.Binding {
	return []key.Binding{keys.Toggle, keys.Up, keys.Down, keys.ExpandAll, keys.CollapseAll, keys.JSON, keys.Export, keys.Focus, keys.Quit}
}

func (h treeHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// quitOnly is the quit binding usable while typing.
var quitOnly = key.NewBinding(
	key.WithKeys("ctrl+c"),
	key.WithHelp("ctrl+c", "quit"),
)
