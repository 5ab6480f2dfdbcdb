package monitor

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause      key.Binding
	StartBack  key.Binding
	StartFwd   key.Binding
	EndBack    key.Binding
	EndFwd     key.Binding
	ResetRange key.Binding
	Table      key.Binding
	Export     key.Binding
	Up         key.Binding
	Down       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.Table, k.Export, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Pause, k.Export},
		{k.StartBack, k.StartFwd, k.EndBack, k.EndFwd, k.ResetRange},
		{k.Table, k.Up, k.Down, k.Help},
	}
}

var keys = keyMap{
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p/space", "run/pause"),
	),
	StartBack: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "start -1d"),
	),
	StartFwd: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "start +1d"),
	),
	EndBack: key.NewBinding(
		key.WithKeys("{"),
		key.WithHelp("{", "end -1d"),
	),
	EndFwd: key.NewBinding(
		key.WithKeys("}"),
		key.WithHelp("}", "end +1d"),
	),
	ResetRange: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "all dates"),
	),
	Table: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "table"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
