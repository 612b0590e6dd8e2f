package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/pablasso/newsdesk/internal/api"
	"github.com/pablasso/newsdesk/internal/auth"
	"github.com/pablasso/newsdesk/internal/board"
	"github.com/pablasso/newsdesk/internal/realtime"
	"github.com/pablasso/newsdesk/internal/store"
	"github.com/pablasso/newsdesk/internal/task"
	"github.com/pablasso/newsdesk/internal/tui/components"
	"github.com/pablasso/newsdesk/internal/tui/msgs"
	"github.com/pablasso/newsdesk/internal/tui/styles"
	"github.com/pablasso/newsdesk/internal/util"
)

const (
	// minColumnWidth is the narrowest a column gets before columns scroll.
	minColumnWidth = 22
	// refreshInterval re-projects the board so cards turn overdue on time.
	refreshInterval = 30 * time.Second
	// chromeHeight is the header, column headers and status lines.
	chromeHeight = 7
)

type promptKind int

const (
	promptNone promptKind = iota
	promptBack
	promptPostpone
	promptResume
	promptDelete
)

// takesText reports whether the prompt reads a comment.
func (k promptKind) takesText() bool {
	return k == promptBack || k == promptPostpone || k == promptResume
}

// resumeTargets are the stages a postponed task can return to.
func resumeTargets() []task.Status {
	out := make([]task.Status, 0, len(task.Stages)-1)
	for _, s := range task.Stages {
		if s != task.StatusPostponed {
			out = append(out, s)
		}
	}
	return out
}

func cycleStatus(current task.Status, step int) task.Status {
	targets := resumeTargets()
	idx := 0
	for i, s := range targets {
		if s == current {
			idx = i
		}
	}
	idx = (idx + step + len(targets)) % len(targets)
	return targets[idx]
}

// refreshMsg is the periodic re-projection tick.
type refreshMsg time.Time

// BoardModel shows the task board as one column per stage.
type BoardModel struct {
	ctx     context.Context
	store   *store.Store
	filters task.Filters
	user    task.User
	now     func() time.Time

	board      board.Board
	col        int
	row        int
	selectedID string

	loading bool
	spinner spinner.Model
	state   realtime.State

	prompt       promptKind
	target       task.Task
	targetStatus task.Status
	input        textinput.Model

	message  string
	errorMsg string

	width  int
	height int
}

// NewBoardModel creates a board view over s. The first load starts with Init.
func NewBoardModel(ctx context.Context, s *store.Store, filters task.Filters, user task.User) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SelectedStyle

	in := textinput.New()
	in.CharLimit = 500
	in.Width = 50

	m := BoardModel{
		ctx:     ctx,
		store:   s,
		filters: filters,
		user:    user,
		now:     time.Now,
		loading: true,
		spinner: sp,
		input:   in,
	}
	if filters.Status != "" {
		m.col = stageIndex(filters.Status)
	}
	return m
}

// Init implements tea.Model.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), scheduleRefresh())
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m BoardModel) load() tea.Cmd {
	ctx, s, filters := m.ctx, m.store, m.filters
	return func() tea.Msg {
		return msgs.TasksLoadedMsg{Err: s.Load(ctx, filters)}
	}
}

func (m BoardModel) reload() tea.Cmd {
	ctx, s := m.ctx, m.store
	return func() tea.Msg {
		return msgs.TasksLoadedMsg{Err: s.Reload(ctx)}
	}
}

// Update implements tea.Model.
func (m BoardModel) Update(msg tea.Msg) (BoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, scheduleRefresh()

	case msgs.TasksLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			if needsLogin(msg.Err) {
				return m, goToLogin()
			}
			m.errorMsg = msg.Err.Error()
		} else {
			m.errorMsg = ""
		}
		m.refresh()
		return m, nil

	case msgs.StoreChangedMsg:
		m.refresh()
		return m, nil

	case msgs.RealtimeStateMsg:
		m.state = msg.State
		return m, nil

	case msgs.ActionDoneMsg:
		m.message = msg.Text
		m.errorMsg = ""
		m.refresh()
		return m, nil

	case msgs.ActionFailedMsg:
		if needsLogin(msg.Err) {
			return m, goToLogin()
		}
		m.message = ""
		m.errorMsg = msg.Err.Error()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKeys(msg)
		}
		return m.handleKeyPress(msg)
	}

	if m.prompt.takesText() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func needsLogin(err error) bool {
	return api.IsUnauthorized(err) || errors.Is(err, auth.ErrNoToken)
}

func goToLogin() tea.Cmd {
	return func() tea.Msg {
		return msgs.GoToLoginMsg{Reason: "Your session has expired. Sign in again."}
	}
}

// refresh re-projects the store and keeps the cursor on the same task when it
// is still in the same column.
func (m *BoardModel) refresh() {
	m.board = m.store.Board(m.now())
	cards := m.column()
	for i, t := range cards {
		if t.ID == m.selectedID {
			m.row = i
			return
		}
	}
	m.clampRow()
}

func (m *BoardModel) clampRow() {
	cards := m.column()
	if m.row >= len(cards) {
		m.row = len(cards) - 1
	}
	if m.row < 0 {
		m.row = 0
	}
	m.selectedID = ""
	if len(cards) > 0 {
		m.selectedID = cards[m.row].ID
	}
}

func (m BoardModel) column() []task.Task {
	return m.board.Column(task.Stages[m.col])
}

// Selected returns the task under the cursor.
func (m BoardModel) Selected() (task.Task, bool) {
	cards := m.column()
	if m.row < 0 || m.row >= len(cards) {
		return task.Task{}, false
	}
	return cards[m.row], true
}

func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.row = 0
			m.clampRow()
		}
		return m, nil
	case "right", "l":
		if m.col < len(task.Stages)-1 {
			m.col++
			m.row = 0
			m.clampRow()
		}
		return m, nil
	case "up", "k":
		if m.row > 0 {
			m.row--
			m.clampRow()
		}
		return m, nil
	case "down", "j":
		m.row++
		m.clampRow()
		return m, nil
	case "r":
		m.loading = true
		m.message = ""
		return m, tea.Batch(m.spinner.Tick, m.reload())
	}

	key := msg.String()
	switch key {
	case "t", "n", "b", "p", "u", "d":
	default:
		return m, nil
	}

	selected, ok := m.Selected()
	if !ok {
		m.errorMsg = "No task selected"
		return m, nil
	}
	m.message = ""
	m.errorMsg = ""

	if (key == "n" || key == "b") && selected.Status == task.StatusPostponed {
		cmd := m.openPrompt(promptResume, selected, task.StatusInProgress, "Why is it resuming?")
		return m, cmd
	}

	switch key {
	case "t":
		return m, m.act(func(ctx context.Context) (task.Task, error) {
			return m.store.Take(ctx, selected.ID)
		}, "Took %q", selected.Title)

	case "n":
		next, ok := selected.Status.Next()
		if !ok {
			m.errorMsg = fmt.Sprintf("%s has no next stage", selected.Status.Label())
			return m, nil
		}
		return m, m.changeStatus(selected, task.NewStatusChange(next, "", task.StatusExtra{}))

	case "b":
		prev, ok := selected.Status.Previous()
		if !ok {
			m.errorMsg = fmt.Sprintf("%s has no previous stage", selected.Status.Label())
			return m, nil
		}
		cmd := m.openPrompt(promptBack, selected, prev, "Why is it going back?")
		return m, cmd

	case "p":
		if selected.Status == task.StatusPostponed {
			m.errorMsg = "Already postponed"
			return m, nil
		}
		cmd := m.openPrompt(promptPostpone, selected, task.StatusPostponed, "Reason for postponing")
		return m, cmd

	case "u":
		return m, m.act(func(ctx context.Context) (task.Task, error) {
			return m.store.Undo(ctx, selected.ID)
		}, "Undid last change to %q", selected.Title)

	case "d":
		m.prompt = promptDelete
		m.target = selected
		return m, nil
	}
	return m, nil
}

func (m *BoardModel) openPrompt(kind promptKind, target task.Task, to task.Status, placeholder string) tea.Cmd {
	m.prompt = kind
	m.target = target
	m.targetStatus = to
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Prompt = "> "
	m.input.Focus()
	return textinput.Blink
}

func (m *BoardModel) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m BoardModel) handlePromptKeys(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	if m.prompt == promptDelete {
		target := m.target
		m.closePrompt()
		if msg.String() != "y" {
			m.message = "Delete cancelled"
			return m, nil
		}
		s, ctx := m.store, m.ctx
		return m, func() tea.Msg {
			if err := s.Delete(ctx, target.ID); err != nil {
				return msgs.ActionFailedMsg{Err: err}
			}
			return msgs.ActionDoneMsg{Text: fmt.Sprintf("Deleted %q", target.Title)}
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.closePrompt()
		return m, nil
	case "tab", "shift+tab":
		if m.prompt == promptResume {
			step := 1
			if msg.String() == "shift+tab" {
				step = -1
			}
			m.targetStatus = cycleStatus(m.targetStatus, step)
			return m, nil
		}
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.errorMsg = "A comment is required"
			return m, nil
		}
		extra := task.StatusExtra{}
		if m.prompt == promptPostpone {
			extra.PostponeReason = text
		}
		change := task.NewStatusChange(m.targetStatus, text, extra)
		target := m.target
		m.closePrompt()
		m.errorMsg = ""
		return m, m.changeStatus(target, change)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BoardModel) changeStatus(t task.Task, change task.StatusChange) tea.Cmd {
	return m.act(func(ctx context.Context) (task.Task, error) {
		return m.store.ChangeStatus(ctx, t.ID, change)
	}, "Moved %q to "+change.Status.Label(), t.Title)
}

// act runs fn off the event loop and reports the outcome as a message.
func (m BoardModel) act(fn func(ctx context.Context) (task.Task, error), format string, args ...any) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if _, err := fn(ctx); err != nil {
			return msgs.ActionFailedMsg{Err: err}
		}
		return msgs.ActionDoneMsg{Text: fmt.Sprintf(format, args...)}
	}
}

// View implements tea.Model.
func (m BoardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	visible, first := m.window()
	colWidth := m.width / visible
	maxCards := (m.height - chromeHeight) / 2
	if maxCards < 1 {
		maxCards = 1
	}

	columns := make([]string, 0, visible)
	for i := first; i < first+visible; i++ {
		columns = append(columns, m.renderColumn(i, colWidth, maxCards))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	b.WriteString(body)

	used := strings.Count(b.String(), "\n") + 1
	footer := m.renderFooter()
	if pad := m.height - used - strings.Count(footer, "\n") - 1; pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	b.WriteString("\n")
	b.WriteString(footer)
	return b.String()
}

// window returns how many columns fit and the first one shown so that the
// cursor column stays visible.
func (m BoardModel) window() (visible, first int) {
	visible = m.width / minColumnWidth
	if visible < 1 {
		visible = 1
	}
	if visible > len(task.Stages) {
		visible = len(task.Stages)
	}
	if m.col >= visible {
		first = m.col - visible + 1
	}
	return visible, first
}

func (m BoardModel) renderHeader() string {
	summary := board.Summarize(m.board)
	parts := []string{styles.TitleStyle.UnsetMarginBottom().Render("Board")}
	if name := m.user.FullName(); name != "" {
		parts = append(parts, styles.SubtleStyle.Render(name))
	}
	stats := fmt.Sprintf("In progress %d (%d overdue) • Total %d", summary.WIP, summary.OverdueWIP, summary.Total)
	if summary.Unknown > 0 {
		stats += fmt.Sprintf(" • Unrecognized %d", summary.Unknown)
	}
	parts = append(parts, styles.SubtleStyle.Render(stats))
	if visible, first := m.window(); visible < len(task.Stages) {
		parts = append(parts, fmt.Sprintf("Stages %d-%d of %d", first+1, first+visible, len(task.Stages)))
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" Loading")
	}
	return strings.Join(parts, "  ")
}

func (m BoardModel) renderColumn(idx, width, maxCards int) string {
	stage := task.Stages[idx]
	cards := m.board.Column(stage)
	active := idx == m.col
	inner := width - 2

	headerStyle := styles.ColumnHeaderStyle
	if active {
		headerStyle = styles.ActiveColumnHeaderStyle
	}
	header := fmt.Sprintf("%s (%d)", stage.Label(), len(cards))
	lines := []string{headerStyle.Width(inner).Render(ansi.Truncate(header, inner, "…"))}

	start := 0
	if active && m.row >= maxCards {
		start = m.row - maxCards + 1
	}
	end := start + maxCards
	if end > len(cards) {
		end = len(cards)
	}

	now := m.now()
	for i := start; i < end; i++ {
		lines = append(lines, m.renderCard(cards[i], active && i == m.row, inner, now)...)
	}
	if hidden := len(cards) - end; hidden > 0 {
		lines = append(lines, styles.SubtleStyle.Render(fmt.Sprintf("+%d more", hidden)))
	}
	return styles.ColumnStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m BoardModel) renderCard(t task.Task, selected bool, width int, now time.Time) []string {
	marker := "  "
	if selected {
		marker = "> "
	}
	title := marker + ansi.Truncate(t.Title, width-len(marker), "…")

	meta := util.FormatAge(now.Sub(t.StatusChangedAt))
	if t.Client != nil {
		if name := t.Client.FullName(); name != "" {
			meta += " · " + name
		}
	}
	meta = "  " + ansi.Truncate(meta, width-2, "…")

	overdue := m.board.IsOverdue(t)
	switch {
	case selected:
		title = styles.SelectedStyle.Render(title)
	case overdue:
		title = styles.OverdueStyle.Render(title)
	}
	if overdue {
		meta = styles.OverdueStyle.Render(meta + " !")
	} else {
		meta = styles.SubtleStyle.Render(meta)
	}
	return []string{title, meta}
}

func (m BoardModel) renderFooter() string {
	var lines []string
	switch m.prompt {
	case promptBack:
		lines = append(lines, fmt.Sprintf("Move %q back to %s:", m.target.Title, m.targetStatus.Label()), m.input.View())
	case promptPostpone:
		lines = append(lines, fmt.Sprintf("Postpone %q:", m.target.Title), m.input.View())
	case promptResume:
		lines = append(lines, fmt.Sprintf("Resume %q in %s:", m.target.Title, m.targetStatus.Label()), m.input.View())
	case promptDelete:
		lines = append(lines, styles.ErrorStyle.Render(fmt.Sprintf("Delete %q? y to confirm, any other key to cancel", m.target.Title)))
	}

	switch {
	case m.errorMsg != "":
		lines = append(lines, styles.ErrorStyle.Render(m.errorMsg))
	case m.message != "":
		lines = append(lines, styles.SuccessStyle.Render(m.message))
	}

	items := []string{components.Connection(m.state)}
	if m.prompt == promptResume {
		items = append(items, "Tab Stage", "Enter Confirm", "Esc Cancel")
	} else if m.prompt.takesText() {
		items = append(items, "Enter Confirm", "Esc Cancel")
	} else {
		items = append(items, "hjkl Move", "t Take", "n Next", "b Back", "p Postpone", "u Undo", "d Delete", "r Reload", "q Quit")
	}
	lines = append(lines, components.NewStatusBar().Render(m.width, items))
	return strings.Join(lines, "\n")
}

// SetSize updates the model dimensions.
func (m *BoardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetState records the realtime connection state.
func (m *BoardModel) SetState(state realtime.State) {
	m.state = state
}

// Loading reports whether a load is in flight.
func (m BoardModel) Loading() bool {
	return m.loading
}

// Message returns the last success message.
func (m BoardModel) Message() string {
	return m.message
}

// Error returns the current error message.
func (m BoardModel) Error() string {
	return m.errorMsg
}

func stageIndex(s task.Status) int {
	for i, stage := range task.Stages {
		if stage == s {
			return i
		}
	}
	return 0
}
