package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the dashboard key bindings
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PrevPanel   key.Binding
	NextPanel   key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	Download    key.Binding
	DownloadAll key.Binding
	Input       key.Binding
	ToggleR18   key.Binding
	Copy        key.Binding
	Settings    key.Binding
	Quit        key.Binding
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevPanel, k.NextTab, k.Download, k.DownloadAll, k.Input, k.Copy, k.Settings, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPanel, k.NextPanel},
		{k.NextTab, k.PrevTab, k.ToggleR18},
		{k.Download, k.DownloadAll, k.Input, k.Copy},
		{k.Settings, k.Quit},
	}
}

// Keys is the default dashboard key map
var Keys = KeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PrevPanel:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "panel")),
	NextPanel:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next panel")),
	NextTab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "ranking")),
	PrevTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev ranking")),
	Download:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "download")),
	DownloadAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "download all")),
	Input:       key.NewBinding(key.WithKeys("i", "/"), key.WithHelp("i", "enter id")),
	ToggleR18:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle R-18")),
	Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),
	Settings:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "settings")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// SettingsKeyMap is the settings overlay key bindings
type SettingsKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Tab   key.Binding
	Edit  key.Binding
	Reset key.Binding
	Close key.Binding
}

// ShortHelp implements help.KeyMap
func (k SettingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Reset, k.Tab, k.Close}
}

// FullHelp implements help.KeyMap
func (k SettingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// SettingsKeys is the default settings overlay key map
var SettingsKeys = SettingsKeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
	Tab:   key.NewBinding(key.WithKeys("1", "2", "3", "tab"), key.WithHelp("1-3", "tab")),
	Edit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
	Reset: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
	Close: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "save")),
}
