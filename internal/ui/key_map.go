package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	search  key.Binding
	open    key.Binding
	save    key.Binding
	stop    key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		open:    key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "open video")),
		save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save to playlist")),
		stop:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new search")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.open},
		{k.save, k.stop, k.restart},
		{k.quit},
	}
}
