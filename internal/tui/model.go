package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/amine-the-boss/juris/internal/api"
	"github.com/amine-the-boss/juris/internal/chat"
	"github.com/amine-the-boss/juris/internal/config"
	"github.com/amine-the-boss/juris/internal/history"
)

// ---------- messages from async operations ----------

type reloadDoneMsg struct{ err error }
type authDoneMsg struct{ err error }
type submitDoneMsg struct{ err error }
type createDoneMsg struct{ err error }
type removeDoneMsg struct{ err error }
type logoutDoneMsg struct{}

// ---------- screens ----------

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenChat
)

const sidebarWidth = 30

var askSpinner = spinner.Spinner{
	Frames: []string{"·", "✢", "✳", "✶", "✻", "✽", "✻", "✶", "✳", "✢"},
	FPS:    120 * time.Millisecond,
}

// Config carries version and server info for the status bar.
type Config struct {
	Version string
	Server  string
}

// Model is the bubbletea model for the full-screen client.
type Model struct {
	ctx    context.Context
	state  *chat.State
	hist   *history.Store
	cfg    Config
	logger *slog.Logger

	screen screen
	form   authForm

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool

	width  int
	height int

	// busy covers directory operations (reload, create, remove,
	// logout); submissions are tracked by the state container.
	busy      bool
	statusMsg string

	confirmingDelete bool
	deleteTarget     int64

	// prompt history recall, shell style: up walks older entries,
	// down walks back toward the in-progress draft.
	histEntries []string
	histIdx     int
	histDraft   string

	mdRenderer      *glamour.TermRenderer
	mdRendererWidth int

	quitting bool
}

// NewModel creates the initial model. The starting screen depends on
// whether a stored token already authenticates the session.
func NewModel(ctx context.Context, st *chat.State, hist *history.Store, cfg Config, logger *slog.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.Placeholder = "Ask a legal question…"
	ti.CharLimit = 4096

	sp := spinner.New()
	sp.Spinner = askSpinner
	sp.Style = spinnerStyle

	m := Model{
		ctx:     ctx,
		state:   st,
		hist:    hist,
		cfg:     cfg,
		logger:  logger,
		input:   ti,
		spinner: sp,
		histIdx: -1,
	}
	if st.Authenticated() {
		m.screen = screenChat
		m.busy = true
		m.input.Focus()
	} else {
		m.screen = screenLogin
		m.form = newLoginForm()
	}
	return m
}

// Run starts the program in the alternate screen and blocks until it
// exits.
func Run(ctx context.Context, st *chat.State, hist *history.Store, cfg Config, logger *slog.Logger) error {
	m := NewModel(ctx, st, hist, cfg, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenChat {
		return tea.Batch(m.reloadCmd(), m.spinner.Tick, textinput.Blink)
	}
	return textinput.Blink
}

// ---------- async commands ----------

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg { return reloadDoneMsg{err: m.state.Reload(m.ctx)} }
}

func (m Model) loginCmd(identifier, password string) tea.Cmd {
	return func() tea.Msg { return authDoneMsg{err: m.state.Login(m.ctx, identifier, password)} }
}

func (m Model) signupCmd(req api.SignupRequest) tea.Cmd {
	return func() tea.Msg { return authDoneMsg{err: m.state.Signup(m.ctx, req)} }
}

func (m Model) submitCmd(prompt string) tea.Cmd {
	return func() tea.Msg { return submitDoneMsg{err: m.state.Submit(m.ctx, prompt)} }
}

func (m Model) createCmd() tea.Cmd {
	return func() tea.Msg { return createDoneMsg{err: m.state.Create(m.ctx)} }
}

func (m Model) removeCmd(id int64) tea.Cmd {
	return func() tea.Msg { return removeDoneMsg{err: m.state.Remove(m.ctx, id)} }
}

func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.state.Logout(m.ctx)
		return logoutDoneMsg{}
	}
}

// ---------- update ----------

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.mainWidth() - 4
		vpHeight := m.height - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.mainWidth(), vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.mainWidth()
			m.viewport.Height = vpHeight
		}
		m.mdRenderer = nil
		m.refreshTranscript()
		return m, nil

	case spinner.TickMsg:
		if m.busy || m.state.Submitting() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin, screenSignup:
			return m.updateAuth(msg)
		default:
			return m.updateChat(msg)
		}

	case reloadDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.statusMsg = api.UserMessage(msg.err)
		}
		return m.afterStateChange()

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, chat.ErrMissingFields) {
				m.form.errMsg = "All fields are required."
			} else {
				m.form.errMsg = api.UserMessage(msg.err)
			}
			return m, nil
		}
		m.screen = screenChat
		m.statusMsg = ""
		m.input.Focus()
		m.refreshTranscript()
		return m, tea.Batch(textinput.Blink, m.spinner.Tick)

	case submitDoneMsg:
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, chat.ErrBusy):
				m.statusMsg = "Still waiting for the previous answer."
			case errors.Is(msg.err, chat.ErrEmptyPrompt):
				// Rejected before the UI ever saw it; nothing to show.
			case api.IsUnauthorized(msg.err):
				// afterStateChange routes back to the login screen.
			default:
				m.statusMsg = api.UserMessage(msg.err)
			}
		}
		return m.afterStateChange()

	case createDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.statusMsg = api.UserMessage(msg.err)
		}
		return m.afterStateChange()

	case removeDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.statusMsg = api.UserMessage(msg.err)
		}
		return m.afterStateChange()

	case logoutDoneMsg:
		m.busy = false
		return m.afterStateChange()
	}

	if m.ready && m.screen == screenChat {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// afterStateChange re-reads the container after any async operation.
// A session reset can happen on any call, so the screen follows the
// authentication state rather than the operation that completed.
func (m Model) afterStateChange() (tea.Model, tea.Cmd) {
	if !m.state.Authenticated() && m.screen == screenChat {
		m.screen = screenLogin
		m.form = newLoginForm()
		m.form.errMsg = "Session expired. Please log in again."
		m.input.Blur()
		m.confirmingDelete = false
		return m, textinput.Blink
	}
	m.refreshTranscript()
	return m, nil
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.form.cycleFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.form.cycleFocus(-1)
		return m, nil
	case "ctrl+s":
		if m.screen == screenLogin {
			m.screen = screenSignup
			m.form = newSignupForm()
		} else {
			m.screen = screenLogin
			m.form = newLoginForm()
		}
		return m, textinput.Blink
	case "enter":
		m.form.errMsg = ""
		if m.form.missingRequired() {
			m.form.errMsg = "All fields are required."
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		vals := m.form.values()
		if m.screen == screenLogin {
			return m, tea.Batch(m.loginCmd(vals[0], vals[1]), m.spinner.Tick)
		}
		req := api.SignupRequest{
			Username:  vals[0],
			Email:     vals[1],
			Password:  vals[2],
			FirstName: vals[3],
			LastName:  vals[4],
		}
		return m, tea.Batch(m.signupCmd(req), m.spinner.Tick)
	}
	return m, m.form.update(msg)
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmingDelete {
		if msg.String() == "y" {
			m.confirmingDelete = false
			m.busy = true
			return m, tea.Batch(m.removeCmd(m.deleteTarget), m.spinner.Tick)
		}
		m.confirmingDelete = false
		return m, nil
	}

	switch msg.String() {
	case "enter":
		prompt := strings.TrimSpace(m.input.Value())
		if prompt == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.resetHistoryBrowse()
		m.statusMsg = ""
		m.recordPrompt(prompt)
		return m, tea.Batch(m.submitCmd(prompt), m.spinner.Tick)

	case "ctrl+n":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.statusMsg = ""
		return m, tea.Batch(m.createCmd(), m.spinner.Tick)

	case "ctrl+j", "ctrl+k":
		m.selectAdjacent(msg.String() == "ctrl+j")
		return m, nil

	case "ctrl+x":
		snap := m.state.Snapshot()
		if snap.ActiveID != 0 {
			m.confirmingDelete = true
			m.deleteTarget = snap.ActiveID
		}
		return m, nil

	case "ctrl+l":
		lang := nextLanguage(m.state.Language())
		m.state.SetLanguage(lang)
		if err := config.SaveLanguage(lang); err != nil {
			m.logger.Warn("saving language failed", "error", err)
		}
		m.statusMsg = "Language: " + lang
		return m, nil

	case "ctrl+g":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.logoutCmd(), m.spinner.Tick)

	case "ctrl+r":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.statusMsg = ""
		return m, tea.Batch(m.reloadCmd(), m.spinner.Tick)

	case "up":
		m.recallOlder()
		return m, nil

	case "down":
		m.recallNewer()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// selectAdjacent moves the cursor to the next or previous directory
// entry in server order.
func (m *Model) selectAdjacent(next bool) {
	snap := m.state.Snapshot()
	if len(snap.Conversations) == 0 {
		return
	}
	idx := 0
	for i, conv := range snap.Conversations {
		if conv.ID == snap.ActiveID {
			idx = i
			break
		}
	}
	if next {
		idx = (idx + 1) % len(snap.Conversations)
	} else {
		idx = (idx - 1 + len(snap.Conversations)) % len(snap.Conversations)
	}
	m.state.Select(snap.Conversations[idx].ID)
	m.refreshTranscript()
}

// ---------- prompt history recall ----------

func (m *Model) recordPrompt(prompt string) {
	if m.hist == nil {
		return
	}
	if err := m.hist.Add(prompt, m.state.Language()); err != nil {
		m.logger.Warn("history write failed", "error", err)
	}
}

func (m *Model) recallOlder() {
	if m.hist == nil {
		return
	}
	if m.histIdx == -1 {
		entries, err := m.hist.Recent(100)
		if err != nil || len(entries) == 0 {
			return
		}
		m.histEntries = entries
		m.histDraft = m.input.Value()
	}
	if m.histIdx+1 >= len(m.histEntries) {
		return
	}
	m.histIdx++
	m.input.SetValue(m.histEntries[m.histIdx])
	m.input.CursorEnd()
}

func (m *Model) recallNewer() {
	if m.histIdx == -1 {
		return
	}
	m.histIdx--
	if m.histIdx == -1 {
		m.input.SetValue(m.histDraft)
	} else {
		m.input.SetValue(m.histEntries[m.histIdx])
	}
	m.input.CursorEnd()
}

func (m *Model) resetHistoryBrowse() {
	m.histIdx = -1
	m.histEntries = nil
	m.histDraft = ""
}

// ---------- view ----------

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.screen == screenLogin || m.screen == screenSignup {
		return m.form.view(m.width, m.height)
	}
	if !m.ready {
		return "loading…"
	}

	snap := m.state.Snapshot()
	sidebar := m.renderSidebar(snap)
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderInputLine(snap),
		m.renderStatusBar(snap),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m Model) mainWidth() int {
	w := m.width - sidebarWidth
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderSidebar(snap chat.Snapshot) string {
	var b strings.Builder
	b.WriteString(sidebarHeaderStyle.Render("Conversations"))
	b.WriteString("\n\n")
	if len(snap.Conversations) == 0 {
		b.WriteString(hintStyle.Render("none yet"))
		b.WriteString("\n")
	}
	for _, conv := range snap.Conversations {
		label := truncate(conversationLabel(conv), sidebarWidth-6)
		if conv.ID == snap.ActiveID {
			b.WriteString(convActiveStyle.Render("▸ " + label))
		} else {
			b.WriteString(convEntryStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("^n new\n^j/^k switch\n^x delete\n^r refresh\n^l language\n^g log out"))

	height := m.height - 2
	if height < 1 {
		height = 1
	}
	return sidebarStyle.Width(sidebarWidth - 2).Height(height).Render(b.String())
}

func (m Model) renderInputLine(snap chat.Snapshot) string {
	if m.confirmingDelete {
		return confirmDangerStyle.Render("Delete this conversation? y/N")
	}
	if snap.Submitting {
		return spinnerStyle.Render(m.spinner.View()) + hintStyle.Render(" Waiting for answer…")
	}
	if m.busy {
		return spinnerStyle.Render(m.spinner.View()) + hintStyle.Render(" Working…")
	}
	return m.input.View()
}

func (m Model) renderStatusBar(snap chat.Snapshot) string {
	server := m.cfg.Server
	if u, err := url.Parse(server); err == nil && u.Host != "" {
		server = u.Host
	}
	status := statusServerStyle.Render(" "+server) +
		statusBarStyle.Render(" │ "+snap.Language)
	if snap.ActiveID != 0 {
		status += statusBarStyle.Render(fmt.Sprintf(" │ conversation %d", snap.ActiveID))
	}
	if m.statusMsg != "" {
		status += statusBarStyle.Render(" │ ") + errorStyle.Render(truncate(m.statusMsg, 48))
	}
	width := m.mainWidth()
	return separatorStyle.Render(strings.Repeat("─", width)) + "\n" +
		statusBarStyle.Width(width).Render(status)
}

// refreshTranscript re-renders the active transcript into the
// viewport and keeps it pinned to the newest message.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	snap := m.state.Snapshot()
	if len(snap.Transcript) == 0 {
		m.viewport.SetContent(hintStyle.Render("\n  No messages yet. Type a question below."))
		return
	}

	var b strings.Builder
	for _, message := range snap.Transcript {
		switch {
		case message.Role == api.RoleUser:
			b.WriteString(userStyle.Render("You: " + message.Content))
			b.WriteString("\n")
		case message.Content == chat.FailureMarker:
			b.WriteString(errorStyle.Render(message.Content))
			b.WriteString("\n\n")
		default:
			b.WriteString(m.renderMarkdown(message.Content))
			b.WriteString("\n\n")
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) getMarkdownRenderer() *glamour.TermRenderer {
	width := m.mainWidth()
	wrapWidth := width - 4
	if m.mdRenderer != nil && m.mdRendererWidth == wrapWidth {
		return m.mdRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return nil
	}
	m.mdRenderer = r
	m.mdRendererWidth = wrapWidth
	return r
}

func (m *Model) renderMarkdown(text string) string {
	r := m.getMarkdownRenderer()
	if r == nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
