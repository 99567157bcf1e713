package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// waitFor returns a command that delivers the next value of ch wrapped by
// wrap. It returns nil once ch is closed, which ends the listen loop.
func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}
