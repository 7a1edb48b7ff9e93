package tui

import "github.com/charmbracelet/bubbles/key"

// tableKeyMap is active while the category tables have focus
type tableKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Activate   key.Binding
	Rename     key.Binding
	EditNames  key.Binding
	Refresh    key.Binding
	Auto       key.Binding
	Form       key.Binding
	Disconnect key.Binding
	Save       key.Binding
	Load       key.Binding
	Reset      key.Binding
	Export     key.Binding
	Import     key.Binding
	Gateways   key.Binding
	Dismiss    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k tableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Activate, k.Refresh, k.Auto, k.Help, k.Quit}
}

func (k tableKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab, k.Activate},
		{k.Refresh, k.Auto, k.Form, k.Disconnect, k.Gateways},
		{k.EditNames, k.Rename, k.Save, k.Load, k.Reset},
		{k.Export, k.Import, k.Dismiss, k.Help, k.Quit},
	}
}

// formKeyMap is active while the connection form has focus
type formKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Connect key.Binding
	Leave   key.Binding
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Connect, k.Leave}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Connect, k.Leave}}
}

// promptKeyMap is active while a one-line prompt is open
type promptKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

func (k promptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k promptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

func newTableKeyMap() tableKeyMap {
	return tableKeyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextTab:    key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab", "next table")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab", "prev table")),
		Activate:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle/write")),
		Rename:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "rename")),
		EditNames:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit names")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Auto:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-refresh")),
		Form:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect form")),
		Disconnect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
		Save:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save names")),
		Load:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "reload names")),
		Reset:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset names")),
		Export:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export names")),
		Import:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import names")),
		Gateways:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "gateways")),
		Dismiss:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Connect: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
		Leave:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "tables")),
	}
}

func newPromptKeyMap() promptKeyMap {
	return promptKeyMap{
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
