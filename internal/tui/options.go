package tui

import "github.com/pablasso/newsdesk/internal/task"

// Options configures TUI startup behavior.
type Options struct {
	// ConfigFile replaces the global config file when set.
	ConfigFile string
	// APIURL overrides the configured backend URL.
	APIURL string
	// Status limits the board to a single stage.
	Status task.Status
}
