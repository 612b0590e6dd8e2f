// Package msgs defines the messages passed between TUI views.
package msgs

import (
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/store"
	"github.com/pablasso/newsdesk/internal/task"
)

// GoToLoginMsg switches to the login view, optionally with a reason.
type GoToLoginMsg struct {
	Reason string
}

// LoggedInMsg is sent once a token has been verified against the backend.
type LoggedInMsg struct {
	User task.User
}

// LoginFailedMsg reports a rejected or failed login attempt.
type LoginFailedMsg struct {
	Err error
}

// TasksLoadedMsg is sent when a board load finishes.
type TasksLoadedMsg struct {
	Err error
}

// StoreChangedMsg relays a task store event into the program.
type StoreChangedMsg struct {
	Event store.Event
}

// RealtimeStateMsg relays a board socket state change.
type RealtimeStateMsg struct {
	State realtime.State
}

// ActionDoneMsg reports a finished card action.
type ActionDoneMsg struct {
	Text string
}

// ActionFailedMsg reports a card action the backend refused.
type ActionFailedMsg struct {
	Err error
}
