package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Lift     key.Binding
	NewChap  key.Binding
	NewSec   key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Export   key.Binding
	Locale   key.Binding
	Preview  key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:   key.NewBinding(key.WithKeys("right", "l", "enter"), key.WithHelp("→/l", "expand")),
		Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Lift:     key.NewBinding(key.WithKeys(" ", "m"), key.WithHelp("space/m", "move chapter")),
		NewChap:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new chapter")),
		NewSec:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new section")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Export:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		Locale:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "switch locale")),
		Preview:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Expand, k.Lift, k.NewChap, k.Edit, k.Delete, k.Export, k.Help, k.Quit}
}

func (k keyMap) fullHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Expand, k.Collapse, k.Lift, k.NewChap, k.NewSec,
		k.Edit, k.Delete, k.Export, k.Locale, k.Preview, k.Reload, k.Help, k.Quit,
	}
}
