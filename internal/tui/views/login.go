package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/tui/components"
	"github.com/pablasso/newsdesk/internal/tui/msgs"
	"github.com/pablasso/newsdesk/internal/tui/styles"
)

// Authenticator signs a user in and stores the resulting token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (task.User, error)
}

const (
	fieldUsername = iota
	fieldPassword
)

// LoginModel asks for credentials before the board can be shown.
type LoginModel struct {
	ctx    context.Context
	auth   Authenticator
	inputs []textinput.Model
	focus  int

	submitting bool
	spinner    spinner.Model
	errorMsg   string
	notice     string

	width  int
	height int
}

// NewLoginModel creates the login view. notice is shown above the form, for
// example when a stored token was rejected.
func NewLoginModel(ctx context.Context, auth Authenticator, notice string) LoginModel {
	username := textinput.New()
	username.Placeholder = "email"
	username.Prompt = "Email:    "
	username.CharLimit = 254
	username.Width = 40
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	return LoginModel{
		ctx:     ctx,
		auth:    auth,
		inputs:  []textinput.Model{username, password},
		spinner: s,
		notice:  notice,
	}
}

// Init implements tea.Model.
func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case msgs.LoginFailedMsg:
		m.submitting = false
		m.errorMsg = msg.Err.Error()
		m.inputs[fieldPassword].SetValue("")
		cmd := m.setFocus(fieldPassword)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m LoginModel) handleKeyPress(msg tea.KeyMsg) (LoginModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		cmd := m.setFocus((m.focus + 1) % len(m.inputs))
		return m, cmd
	case "shift+tab", "up":
		cmd := m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		return m, cmd
	case "enter":
		if m.focus == fieldUsername {
			cmd := m.setFocus(fieldPassword)
			return m, cmd
		}
		return m.submit()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *LoginModel) setFocus(field int) tea.Cmd {
	m.focus = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return textinput.Blink
}

func (m LoginModel) submit() (LoginModel, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()
	if username == "" || password == "" {
		m.errorMsg = "Email and password are required"
		return m, nil
	}

	m.submitting = true
	m.errorMsg = ""
	ctx, auth := m.ctx, m.auth
	login := func() tea.Msg {
		user, err := auth.Login(ctx, username, password)
		if err != nil {
			return msgs.LoginFailedMsg{Err: err}
		}
		return msgs.LoggedInMsg{User: user}
	}
	return m, tea.Batch(m.spinner.Tick, login)
}

// View implements tea.Model.
func (m LoginModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, styles.TitleStyle.Render("N E W S D E S K"))
	if m.notice != "" {
		lines = append(lines, styles.SubtleStyle.Render(m.notice), "")
	}
	for _, in := range m.inputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "")
	switch {
	case m.submitting:
		lines = append(lines, m.spinner.View()+" Signing in...")
	case m.errorMsg != "":
		lines = append(lines, styles.ErrorStyle.Render(m.errorMsg))
	default:
		lines = append(lines, "")
	}

	form := styles.BoxStyle.Render(strings.Join(lines, "\n"))
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, form)

	statusItems := []string{"Tab Next field", "Enter Sign in", "Esc Quit"}
	return body + "\n" + components.NewStatusBar().Render(m.width, statusItems)
}

// SetSize updates the model dimensions.
func (m *LoginModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Submitting reports whether a login request is in flight.
func (m LoginModel) Submitting() bool {
	return m.submitting
}

// Error returns the current error message.
func (m LoginModel) Error() string {
	return m.errorMsg
}
