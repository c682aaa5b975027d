package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

// Matches checks if a key message matches this binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}
	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

func key(help string, keys ...string) Key {
	return Key{Keys: keys, Help: help, Enabled: true}
}

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	Up       Key
	Down     Key
	PageUp   Key
	PageDown Key
	Top      Key

	Select    Key
	Back      Key
	Quit      Key
	Search    Key
	Calculate Key
	Policy    Key
	History   Key
	Lots      Key
	Horizon   Key

	// Module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F10 Key
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key("up", "up", "k"),
		Down:     key("down", "down", "j"),
		PageUp:   key("page up", "pgup", "ctrl+u"),
		PageDown: key("page down", "pgdown", "ctrl+d"),
		Top:      key("top", "home", "g"),

		Select:    key("select", "enter"),
		Back:      key("back", "esc"),
		Quit:      key("quit", "q", "ctrl+c"),
		Search:    key("search", "/"),
		Calculate: key("calculate", "c"),
		Policy:    key("toggle do-not-touch", "x"),
		History:   key("history", "h"),
		Lots:      key("lots", "l"),
		Horizon:   key("horizon", "d"),

		F1:  key("Help", "f1", "?"),
		F2:  key("Strategies", "f2"),
		F3:  key("Report", "f3"),
		F4:  key("History", "f4"),
		F5:  key("Expiry", "f5"),
		F10: key("Quit", "f10"),
	}
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// ModuleFor returns the module a function key switches to, or "" when the
// key is not a module key.
func (km KeyMap) ModuleFor(msg tea.KeyMsg) Module {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp
	case km.F2.Matches(msg):
		return ModuleStrategies
	case km.F3.Matches(msg):
		return ModuleReport
	case km.F4.Matches(msg):
		return ModuleHistory
	case km.F5.Matches(msg):
		return ModuleExpiry
	default:
		return ""
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp() string {
	return "[F1]Help [F2]Strategies [F3]Report [F4]History [F5]Expiry [F10]Quit"
}
