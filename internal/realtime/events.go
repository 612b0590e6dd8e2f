package realtime

import (
	"encoding/json"

	"github.com/pablasso/newsdesk/internal/task"
)

// State is the connection state of the board socket.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Message types sent by the backend.
const (
	TypeTaskCreated       = "task_created"
	TypeTaskUpdated       = "task_updated"
	TypeTaskStatusChanged = "task_status_changed"
	TypeTaskTaken         = "task_taken"
	TypeTaskUndo          = "task_undo"
	TypeTaskDeleted       = "task_deleted"
	TypeNewMessage        = "new_message"
	TypePing              = "ping"
	TypePong              = "pong"
)

var knownTypes = map[string]bool{
	TypeTaskCreated:       true,
	TypeTaskUpdated:       true,
	TypeTaskStatusChanged: true,
	TypeTaskTaken:         true,
	TypeTaskUndo:          true,
	TypeTaskDeleted:       true,
	TypeNewMessage:        true,
	TypePong:              true,
}

// Message is a board socket frame. Only Type is always present.
type Message struct {
	Type       string      `json:"type"`
	TaskID     string      `json:"task_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	FromStatus task.Status `json:"from_status,omitempty"`
	ToStatus   task.Status `json:"to_status,omitempty"`

	// Raw is the frame as received.
	Raw json.RawMessage `json:"-"`
}

// IsTaskChange reports whether the message signals a change to task data.
func (m Message) IsTaskChange() bool {
	switch m.Type {
	case TypeTaskCreated, TypeTaskUpdated, TypeTaskStatusChanged,
		TypeTaskTaken, TypeTaskUndo, TypeTaskDeleted:
		return true
	}
	return false
}

// Events receives callbacks from the client's Run goroutine.
type Events interface {
	// OnStateChange is called on every connection state transition.
	OnStateChange(state State)

	// OnMessage is called for every known message type except pong.
	OnMessage(msg Message)
}

// Fanout delivers callbacks to every non-nil receiver in order.
func Fanout(receivers ...Events) Events {
	out := make(fanout, 0, len(receivers))
	for _, r := range receivers {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type fanout []Events

func (f fanout) OnStateChange(state State) {
	for _, r := range f {
		r.OnStateChange(state)
	}
}

func (f fanout) OnMessage(msg Message) {
	for _, r := range f {
		r.OnMessage(msg)
	}
}

// Handlers adapts plain functions to Events. Nil fields are skipped.
type Handlers struct {
	State   func(State)
	Message func(Message)
}

func (h Handlers) OnStateChange(state State) {
	if h.State != nil {
		h.State(state)
	}
}

func (h Handlers) OnMessage(msg Message) {
	if h.Message != nil {
		h.Message(msg)
	}
}
