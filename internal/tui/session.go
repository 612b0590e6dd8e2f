package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pablasso/newsdesk/internal/app"
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/store"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/tui/msgs"
)

// Session is what the TUI needs from the rest of the program.
type Session interface {
	Login(ctx context.Context, username, password string) (task.User, error)
	// Resume checks the stored token and returns its user.
	Resume(ctx context.Context) (task.User, error)
	Store() *store.Store
	// StartRealtime connects the board socket once per session.
	StartRealtime() error
}

type appSession struct {
	ctx   context.Context
	app   *app.App
	store *store.Store
	send  func(tea.Msg)

	startOnce sync.Once
	startErr  error
}

func newSession(ctx context.Context, a *app.App) *appSession {
	return &appSession{
		ctx:   ctx,
		app:   a,
		store: a.NewStore(),
		send:  func(tea.Msg) {},
	}
}

func (s *appSession) Login(ctx context.Context, username, password string) (task.User, error) {
	token, err := s.app.API.Login(ctx, username, password)
	if err != nil {
		return task.User{}, err
	}
	if err := s.app.Tokens.Save(token); err != nil {
		return task.User{}, err
	}
	return s.app.API.Me(ctx)
}

func (s *appSession) Resume(ctx context.Context) (task.User, error) {
	if _, err := s.app.Tokens.Token(); err != nil {
		return task.User{}, err
	}
	return s.app.API.Me(ctx)
}

func (s *appSession) Store() *store.Store {
	return s.store
}

func (s *appSession) StartRealtime() error {
	s.startOnce.Do(func() {
		syncer := s.app.NewSyncer(s.store)
		status := realtime.Handlers{
			State: func(state realtime.State) {
				s.send(msgs.RealtimeStateMsg{State: state})
			},
		}
		client, err := s.app.NewRealtime(realtime.Fanout(syncer, status))
		if err != nil {
			s.startErr = err
			return
		}
		go syncer.Run(s.ctx)
		go func() {
			_ = client.Run(s.ctx)
		}()
	})
	return s.startErr
}

// watchStore relays store events to send until the returned func is called.
func (s *appSession) watchStore() func() {
	return s.store.Subscribe(func(ev store.Event) {
		s.send(msgs.StoreChangedMsg{Event: ev})
	})
}
