package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Hold     key.Binding
	Mode     key.Binding
	Screen   key.Binding
	Select   key.Binding
	Back     key.Binding
	Quit     key.Binding
	Navigate key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "+", "k"),
			key.WithHelp("↑/+", "more smoothing"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "-", "j"),
			key.WithHelp("↓/-", "less smoothing"),
		),
		Hold: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "max-hold"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "axis mode"),
		),
		Screen: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "devices"),
		),
		Navigate: key.NewBinding(
			key.WithKeys("up", "down", "k", "j"),
			key.WithHelp("↑/↓", "navigate"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// spectrumHelp and deviceHelp adapt the bindings of each screen to help.KeyMap.
type spectrumHelp struct{ keyMap }

func (k spectrumHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Hold, k.Mode, k.Screen, k.Quit}
}

func (k spectrumHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type deviceHelp struct{ keyMap }

func (k deviceHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Select, k.Back, k.Screen, k.Quit}
}

func (k deviceHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
