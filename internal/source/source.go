// Package source is the "sources" collaborator spec.md §3 assigns to Env:
// owner of the raw source buffer, used to render a line of context
// alongside a diagnostic position (spec.md §5 "Source buffers are owned
// by the source manager collaborator").
package source

import "strings"

// Manager holds one named source buffer, split into lines lazily.
type Manager struct {
	Name  string
	Text  string
	lines []string
}

func New(name, text string) *Manager {
	return &Manager{Name: name, Text: text}
}

// Line returns the 1-indexed source line, or "" if out of range.
func (m *Manager) Line(n int) string {
	if m.lines == nil {
		m.lines = strings.Split(m.Text, "\n")
	}
	if n < 1 || n > len(m.lines) {
		return ""
	}
	return m.lines[n-1]
}
