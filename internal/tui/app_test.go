package tui

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pablasso/newsdesk/internal/api"
	"github.com/pablasso/newsdesk/internal/app"
	"github.com/pablasso/newsdesk/internal/auth"
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/store"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/testutil"
	"github.com/pablasso/newsdesk/internal/tui/msgs"
)

type fakeSession struct {
	store     *store.Store
	user      task.User
	resumeErr error
	startErr  error
	started   int
}

func (f *fakeSession) Login(context.Context, string, string) (task.User, error) {
	return f.user, nil
}

func (f *fakeSession) Resume(context.Context) (task.User, error) {
	return f.user, f.resumeErr
}

func (f *fakeSession) Store() *store.Store { return f.store }

func (f *fakeSession) StartRealtime() error {
	f.started++
	return f.startErr
}

func newTestModel(s Session) Model {
	m := newModel(context.Background(), s, task.Filters{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return updated.(Model)
}

func TestModel_View_TerminalTooSmall(t *testing.T) {
	tests := []struct {
		name        string
		width       int
		height      int
		expectSmall bool
	}{
		{"exactly minimum size", MinTerminalWidth, MinTerminalHeight, false},
		{"width too small", MinTerminalWidth - 1, MinTerminalHeight, true},
		{"height too small", MinTerminalWidth, MinTerminalHeight - 1, true},
		{"both dimensions too small", MinTerminalWidth - 10, MinTerminalHeight - 5, true},
		{"larger than minimum", 100, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(context.Background(), &fakeSession{}, task.Filters{})
			updated, _ := m.Update(tea.WindowSizeMsg{Width: tt.width, Height: tt.height})
			view := updated.(Model).View()

			if tt.expectSmall != strings.Contains(view, "Terminal too small") {
				t.Errorf("expectSmall=%v, view:\n%s", tt.expectSmall, view)
			}
			if tt.expectSmall && (!strings.Contains(view, "Minimum:") || !strings.Contains(view, "Current:")) {
				t.Error("expected dimensions in the warning")
			}
		})
	}
}

func TestModel_renderTerminalTooSmall_ShowsDimensions(t *testing.T) {
	m := newModel(context.Background(), &fakeSession{}, task.Filters{})
	m.width = 50
	m.height = 10

	view := m.renderTerminalTooSmall()

	if !strings.Contains(view, "60x15") {
		t.Error("expected minimum dimensions 60x15 to be shown")
	}
	if !strings.Contains(view, "50x10") {
		t.Error("expected current dimensions 50x10 to be shown")
	}
}

func TestModel_Init_ResumesSession(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantLogin  bool
		wantReason string
	}{
		{name: "stored token is valid"},
		{name: "no token", err: auth.ErrNoToken, wantLogin: true},
		{
			name:       "token rejected",
			err:        &api.Error{StatusCode: http.StatusUnauthorized, Detail: "Could not validate credentials"},
			wantLogin:  true,
			wantReason: "Your session has expired. Sign in again.",
		},
		{name: "backend down", err: errors.New("connection refused"), wantLogin: true, wantReason: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(&fakeSession{user: task.User{FirstName: "Irina"}, resumeErr: tt.err})

			msg := m.Init()()

			if !tt.wantLogin {
				if _, ok := msg.(msgs.LoggedInMsg); !ok {
					t.Fatalf("expected LoggedInMsg, got %T", msg)
				}
				return
			}
			login, ok := msg.(msgs.GoToLoginMsg)
			if !ok {
				t.Fatalf("expected GoToLoginMsg, got %T", msg)
			}
			if login.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", login.Reason, tt.wantReason)
			}
		})
	}
}

func TestModel_StartingView(t *testing.T) {
	m := newTestModel(&fakeSession{})

	if !strings.Contains(m.View(), "Connecting") {
		t.Error("expected starting view")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_LoginThenBoard(t *testing.T) {
	fake := &fakeSession{}
	m := newTestModel(fake)

	updated, _ := m.Update(msgs.GoToLoginMsg{Reason: "Sign in to continue"})
	m = updated.(Model)
	if m.currentView != ViewLogin {
		t.Fatalf("view = %d, want login", m.currentView)
	}
	if !strings.Contains(m.View(), "Sign in to continue") {
		t.Error("expected login notice in view")
	}

	updated, cmd := m.Update(msgs.LoggedInMsg{User: task.User{FirstName: "Irina", LastName: "Volkova"}})
	m = updated.(Model)
	if m.currentView != ViewBoard {
		t.Fatalf("view = %d, want board", m.currentView)
	}
	if cmd == nil {
		t.Fatal("expected board startup commands")
	}
	if !strings.Contains(m.View(), "Irina Volkova") {
		t.Error("expected user name in board header")
	}
}

func TestModel_StartRealtimeFailureReported(t *testing.T) {
	fake := &fakeSession{startErr: errors.New("bad socket url")}
	m := newTestModel(fake)

	msg := m.startRealtime()()

	failed, ok := msg.(msgs.ActionFailedMsg)
	if !ok {
		t.Fatalf("expected ActionFailedMsg, got %T", msg)
	}
	if !strings.Contains(failed.Err.Error(), "bad socket url") {
		t.Errorf("err = %v", failed.Err)
	}
	if fake.started != 1 {
		t.Errorf("started = %d", fake.started)
	}
}

func TestModel_RealtimeStateCarriedIntoBoard(t *testing.T) {
	m := newTestModel(&fakeSession{})

	updated, _ := m.Update(msgs.RealtimeStateMsg{State: realtime.StateConnected})
	updated, _ = updated.(Model).Update(msgs.LoggedInMsg{})
	m = updated.(Model)

	if !strings.Contains(m.View(), "● connected") {
		t.Error("expected connection state on the board")
	}
}

func newTestApp(t *testing.T, backend *testutil.Backend) *app.App {
	t.Helper()

	a, err := app.New(app.Options{
		HomeDir: t.TempDir(),
		WorkDir: t.TempDir(),
		APIURL:  backend.URL(),
		Silent:  true,
	})
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	return a
}

func TestAppSession_LoginAndResume(t *testing.T) {
	backend := testutil.NewBackend(t)
	sess := newSession(context.Background(), newTestApp(t, backend))

	if _, err := sess.Resume(context.Background()); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("Resume before login = %v, want ErrNoToken", err)
	}

	if _, err := sess.Login(context.Background(), testutil.Username, "wrong"); !errors.Is(err, api.ErrInvalidCredentials) {
		t.Fatalf("Login with wrong password = %v", err)
	}

	user, err := sess.Login(context.Background(), testutil.Username, testutil.Password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != backend.User.Email {
		t.Errorf("user = %+v", user)
	}

	resumed, err := sess.Resume(context.Background())
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.ID != backend.User.ID {
		t.Errorf("resumed user = %+v", resumed)
	}
}

func TestAppSession_RealtimeAndStoreEvents(t *testing.T) {
	backend := testutil.NewBackend(t)
	a := newTestApp(t, backend)
	if err := a.Tokens.Save(testutil.Token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newSession(ctx, a)
	received := make(chan tea.Msg, 64)
	sess.send = func(msg tea.Msg) {
		select {
		case received <- msg:
		default:
		}
	}
	unsubscribe := sess.watchStore()
	defer unsubscribe()

	if err := sess.StartRealtime(); err != nil {
		t.Fatalf("StartRealtime failed: %v", err)
	}
	if err := sess.StartRealtime(); err != nil {
		t.Fatalf("second StartRealtime failed: %v", err)
	}
	if !backend.WaitForConnections(1, 2*time.Second) {
		t.Fatal("expected the board socket to connect")
	}
	if backend.Connections() != 1 {
		t.Errorf("connections = %d, want 1", backend.Connections())
	}

	waitFor(t, received, func(msg tea.Msg) bool {
		state, ok := msg.(msgs.RealtimeStateMsg)
		return ok && state.State == realtime.StateConnected
	})

	// A broadcast makes the syncer reload the store, which reports a change.
	backend.AddTask(task.Task{Title: "pushed", Status: task.StatusNew})
	backend.Broadcast(map[string]any{"type": "task_created", "task_id": "x"})

	waitFor(t, received, func(msg tea.Msg) bool {
		changed, ok := msg.(msgs.StoreChangedMsg)
		return ok && changed.Event.Kind == store.EventLoaded
	})
	if tasks, _ := sess.Store().Snapshot(); len(tasks) != 1 {
		t.Errorf("store has %d tasks, want 1", len(tasks))
	}
}

func waitFor(t *testing.T, ch <-chan tea.Msg, match func(tea.Msg) bool) {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg := <-ch:
			if match(msg) {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for message")
		}
	}
}
