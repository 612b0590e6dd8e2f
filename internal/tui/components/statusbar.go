package components

import (
	"strings"

	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/tui/styles"
)

// StatusBar renders a bottom help bar showing contextual help items.
type StatusBar struct{}

// NewStatusBar creates a new StatusBar instance.
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// Render returns the status bar string for the given width and items.
// Items are joined with " • " separator and padded to fill the width.
func (s StatusBar) Render(width int, items []string) string {
	if len(items) == 0 {
		return styles.StatusBarStyle.Width(width).Render("")
	}

	content := strings.Join(items, " • ")

	return styles.StatusBarStyle.Width(width).Render(content)
}

// Connection renders the realtime connection state as a status bar item.
func Connection(state realtime.State) string {
	label := "● " + state.String()
	switch state {
	case realtime.StateConnected:
		return styles.SuccessStyle.Render(label)
	case realtime.StateReconnecting:
		return styles.OverdueStyle.Render(label)
	case realtime.StateDisconnected:
		return styles.ErrorStyle.Render(label)
	default:
		return label
	}
}
