// Package tui is the interactive task board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pablasso/newsdesk/internal/api"
	"github.com/pablasso/newsdesk/internal/app"
	"github.com/pablasso/newsdesk/internal/auth"
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/tui/msgs"
	"github.com/pablasso/newsdesk/internal/tui/styles"
	"github.com/pablasso/newsdesk/internal/tui/views"
)

// Minimum terminal dimensions for the board to be usable.
const (
	MinTerminalWidth  = 60
	MinTerminalHeight = 15
)

// View represents the different screens in the TUI.
type View int

const (
	ViewStarting View = iota
	ViewLogin
	ViewBoard
)

// Model is the main Bubble Tea model that orchestrates all views.
type Model struct {
	currentView View
	width       int
	height      int

	ctx     context.Context
	session Session
	filters task.Filters

	login views.LoginModel
	board views.BoardModel

	// state is kept here so a board created after login starts with it.
	state realtime.State
}

// Run starts the TUI application.
func Run(opts Options) error {
	a, err := app.New(app.Options{
		ConfigFile: opts.ConfigFile,
		APIURL:     opts.APIURL,
		Silent:     true,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newSession(ctx, a)
	p := tea.NewProgram(
		newModel(ctx, sess, task.Filters{Status: opts.Status}),
		tea.WithAltScreen(),
	)
	sess.send = p.Send
	unsubscribe := sess.watchStore()
	defer unsubscribe()

	_, err = p.Run()
	return err
}

func newModel(ctx context.Context, s Session, filters task.Filters) Model {
	return Model{
		currentView: ViewStarting,
		ctx:         ctx,
		session:     s,
		filters:     filters,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		user, err := s.Resume(ctx)
		switch {
		case err == nil:
			return msgs.LoggedInMsg{User: user}
		case errors.Is(err, auth.ErrNoToken):
			return msgs.GoToLoginMsg{}
		case api.IsUnauthorized(err):
			return msgs.GoToLoginMsg{Reason: "Your session has expired. Sign in again."}
		default:
			return msgs.GoToLoginMsg{Reason: err.Error()}
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.login.SetSize(msg.Width, msg.Height)
		m.board.SetSize(msg.Width, msg.Height)
		return m, nil

	case msgs.GoToLoginMsg:
		m.currentView = ViewLogin
		m.login = views.NewLoginModel(m.ctx, m.session, msg.Reason)
		m.login.SetSize(m.width, m.height)
		return m, m.login.Init()

	case msgs.LoggedInMsg:
		m.currentView = ViewBoard
		m.board = views.NewBoardModel(m.ctx, m.session.Store(), m.filters, msg.User)
		m.board.SetSize(m.width, m.height)
		m.board.SetState(m.state)
		return m, tea.Batch(m.board.Init(), m.startRealtime())

	case msgs.RealtimeStateMsg:
		m.state = msg.State
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewLogin:
		m.login, cmd = m.login.Update(msg)
	case ViewBoard:
		m.board, cmd = m.board.Update(msg)
	case ViewStarting:
		if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "ctrl+c" || key.String() == "q") {
			return m, tea.Quit
		}
	}
	return m, cmd
}

func (m Model) startRealtime() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		if err := s.StartRealtime(); err != nil {
			return msgs.ActionFailedMsg{Err: fmt.Errorf("realtime updates unavailable: %w", err)}
		}
		return nil
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.width < MinTerminalWidth || m.height < MinTerminalHeight {
		return m.renderTerminalTooSmall()
	}

	switch m.currentView {
	case ViewLogin:
		return m.login.View()
	case ViewBoard:
		return m.board.View()
	default:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.SubtleStyle.Render("Connecting..."))
	}
}

func (m Model) renderTerminalTooSmall() string {
	lines := []string{
		styles.ErrorStyle.Render("Terminal too small"),
		"",
		fmt.Sprintf("Minimum: %dx%d", MinTerminalWidth, MinTerminalHeight),
		fmt.Sprintf("Current: %dx%d", m.width, m.height),
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, strings.Join(lines, "\n"))
}
