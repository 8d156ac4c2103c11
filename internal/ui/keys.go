package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings the app handles before the active view sees a key.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Back      key.Binding
	Login     key.Binding
	Logout    key.Binding
	Help      key.Binding
}

var Keys = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Login:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	Logout:    key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "logout")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// helpText lists the post page bindings for the status bar.
const helpText = "j/k move  space fold  z fold all  c comment  r reply  e/E edit  ctrl+r refresh  L login  q quit"
