package components

import (
	"strings"
	"testing"

	"github.com/pablasso/newsdesk/internal/realtime"
)

func TestStatusBar_Render_SingleItem(t *testing.T) {
	sb := NewStatusBar()
	result := sb.Render(50, []string{"q Quit"})

	if !strings.Contains(result, "q Quit") {
		t.Errorf("expected result to contain 'q Quit', got: %s", result)
	}
}

func TestStatusBar_Render_SeparatorFormat(t *testing.T) {
	sb := NewStatusBar()
	result := sb.Render(40, []string{"A", "B", "C"})

	if !strings.Contains(result, "A • B • C") {
		t.Errorf("expected items to be joined with ' • ', got: %s", result)
	}
}

func TestStatusBar_Render_EmptyItems(t *testing.T) {
	sb := NewStatusBar()

	// Only checks that rendering nothing does not panic.
	_ = sb.Render(50, []string{})
}

func TestStatusBar_Render_NarrowWidth(t *testing.T) {
	sb := NewStatusBar()
	items := []string{"hjkl Move", "t Take", "q Quit"}
	result := sb.Render(20, items)

	if result == "" {
		t.Error("expected non-empty result even with narrow width")
	}
}

func TestConnection(t *testing.T) {
	tests := []struct {
		state realtime.State
		want  string
	}{
		{realtime.StateConnected, "connected"},
		{realtime.StateConnecting, "connecting"},
		{realtime.StateReconnecting, "reconnecting"},
		{realtime.StateDisconnected, "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Connection(tt.state)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Connection(%v) = %q, want it to contain %q", tt.state, got, tt.want)
			}
		})
	}
}
