// Package theme renders client output in named ANSI color themes.
package theme

import (
	"fmt"
	"sort"
)

// Kind classifies a line of client output.
type Kind int

const (
	KindInfo Kind = iota
	KindError
	KindSelf
	KindPeer
	KindPrompt
)

const ansiReset = "\033[0m"

// Theme maps output kinds to ANSI color prefixes.
type Theme struct {
	Name   string
	Info   string
	Error  string
	Self   string
	Peer   string
	Prompt string
}

var themes = map[string]Theme{
	"default": {
		Name:   "default",
		Info:   "\033[36m", // cyan
		Error:  "\033[31m", // red
		Self:   "\033[32m", // green
		Peer:   "\033[33m", // yellow
		Prompt: "\033[1m",  // bold
	},
	"mono": {
		Name: "mono",
	},
	"matrix": {
		Name:   "matrix",
		Info:   "\033[32m",
		Error:  "\033[1;32m",
		Self:   "\033[92m",
		Peer:   "\033[32m",
		Prompt: "\033[1;32m",
	},
	"ocean": {
		Name:   "ocean",
		Info:   "\033[34m",
		Error:  "\033[91m",
		Self:   "\033[96m",
		Peer:   "\033[94m",
		Prompt: "\033[1;34m",
	},
}

// Manager holds the active theme.
type Manager struct {
	current Theme
}

// NewManager starts with the named theme, falling back to default.
func NewManager(name string) *Manager {
	m := &Manager{}
	if !m.Switch(name) {
		m.current = themes["default"]
	}
	return m
}

// Switch changes the active theme; false when the name is unknown.
func (m *Manager) Switch(name string) bool {
	t, ok := themes[name]
	if !ok {
		return false
	}
	m.current = t
	return true
}

// Current returns the active theme name.
func (m *Manager) Current() string {
	return m.current.Name
}

// Names lists available themes, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paint wraps text in the color for the given kind.
func (m *Manager) Paint(kind Kind, text string) string {
	color := ""
	switch kind {
	case KindInfo:
		color = m.current.Info
	case KindError:
		color = m.current.Error
	case KindSelf:
		color = m.current.Self
	case KindPeer:
		color = m.current.Peer
	case KindPrompt:
		color = m.current.Prompt
	}
	if color == "" {
		return text
	}
	return fmt.Sprintf("%s%s%s", color, text, ansiReset)
}
