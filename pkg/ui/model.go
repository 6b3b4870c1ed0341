// Package ui is the full-screen chat interface.
//
// The conversation state lives in Model and is only changed in Update. A
// submitted question is sent from a tea.Cmd and the reply comes back as a
// message, so the interface keeps redrawing while a request is in flight.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/go-go-golems/askchat/pkg/render"
	"github.com/go-go-golems/askchat/pkg/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	appTitle    = "🤖 AI Chat Assistant"
	appSubtitle = "Ask me anything and I'll help you find the answer!"
	placeholder = "Type your message here..."
	thinking    = "Thinking... 🤔"

	// header, notice line, bordered input and help line
	chromeHeight = 6
	minMainWidth = 30
)

// ResetMsg clears the conversation.
type ResetMsg struct{}

type answerMsg struct {
	question string
	answer   *answer.Answer
	err      error
}

type clipboardMsg struct {
	err error
}

type Options struct {
	Asker    session.Asker
	Endpoint string
	Ready    bool
	Debug    bool
	MaxTurns int

	// Style is the glamour style; empty means detect from the terminal.
	Style string
	// Tokens estimates the transcript size shown in the sidebar.
	Tokens TokenCounter
	// Copy writes to the clipboard. Defaults to atotto/clipboard.
	Copy    func(string) error
	Context context.Context
	Logger  *zerolog.Logger
}

type Model struct {
	ctx    context.Context
	asker  session.Asker
	logger zerolog.Logger

	state  conversation.State
	busy   bool
	notice *session.Notice
	status string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	markdown *render.Markdown

	showSidebar bool
	sidebar     SidebarModel
	tokens      TokenCounter
	copy        func(string) error

	confirm      *huh.Form
	confirmReset *bool

	width      int
	height     int
	leftWidth  int
	rightWidth int
}

func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	vp := viewport.New(80, 10)
	vp.Style = lipgloss.NewStyle()

	md, err := render.NewMarkdown(opts.Style, 76)
	if err != nil {
		log.Warn().Err(err).Msg("markdown rendering disabled")
		md = nil
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	counter := opts.Tokens
	if counter == nil {
		counter = NewTiktokenCounter("")
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	state := conversation.New(opts.MaxTurns)
	m := Model{
		ctx:      ctx,
		asker:    opts.Asker,
		logger:   logger,
		state:    state,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		markdown: md,
		sidebar:  NewSidebarModel(opts.Ready, opts.Endpoint, opts.Debug, state.Max()),
		tokens:   counter,
		copy:     copyFn,
		width:    80,
		height:   24,
	}
	m.layout()
	m.refresh()
	return m
}

// State returns the current conversation.
func (m Model) State() conversation.State { return m.state }

func (m Model) Busy() bool { return m.busy }

func (m Model) Notice() *session.Notice { return m.notice }

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Sidebar):
			m.showSidebar = !m.showSidebar
			m.layout()
			m.refresh()
			if m.showSidebar {
				return m, m.countTokens()
			}
			return m, nil
		case key.Matches(msg, m.keys.Reset):
			if m.busy {
				m.status = "Wait for the current answer before resetting."
				return m, nil
			}
			cmd := m.openConfirm()
			return m, cmd
		case key.Matches(msg, m.keys.Copy):
			return m, m.copyLast()
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Up):
			m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
			return m, nil
		}

	case answerMsg:
		m.busy = false
		var notice *session.Notice
		m.state, notice = session.Complete(m.state, msg.answer, msg.err)
		m.notice = notice
		if notice != nil {
			m.logger.Warn().Str("kind", notice.Kind.String()).Msg("question failed")
		} else {
			m.logger.Debug().Int("turns", m.state.Len()).Msg("answer received")
		}
		m.refresh()
		return m, m.countTokens()

	case ResetMsg:
		m.state = m.state.Reset()
		m.notice = nil
		m.status = "Conversation cleared."
		m.logger.Info().Msg("conversation reset")
		m.refresh()
		return m, m.countTokens()

	case clipboardMsg:
		if msg.err != nil {
			m.status = "Clipboard unavailable: " + msg.err.Error()
		} else {
			m.status = "📋 Copied last answer."
		}
		return m, nil

	case tokenCountMsg:
		// a count for an older transcript is dropped
		if msg.turns == m.state.Len() {
			m.sidebar, _ = m.sidebar.Update(msg)
		}
		return m, nil

	case ExchangeMsg:
		m.sidebar, _ = m.sidebar.Update(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if !m.busy {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if _, ok := msg.(tea.MouseMsg); ok {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	question, ok := session.Normalize(m.input.Value())
	m.input.Reset()
	if !ok {
		return m, nil
	}

	m.state = session.Begin(m.state, question)
	m.busy = true
	m.notice = nil
	m.status = ""
	m.logger.Info().Int("length", len(question)).Msg("question submitted")
	m.refresh()

	return m, tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.asker, question))
}

func askCmd(ctx context.Context, asker session.Asker, question string) tea.Cmd {
	return func() tea.Msg {
		if asker == nil {
			return answerMsg{question: question, err: &answer.Error{Kind: answer.KindUnknown, Message: "no answering service configured"}}
		}
		ans, err := asker.Ask(ctx, question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

func (m Model) copyLast() tea.Cmd {
	last, ok := m.state.LastAssistant()
	if !ok {
		return func() tea.Msg {
			return clipboardMsg{err: errors.New("no answer to copy yet")}
		}
	}
	copyFn := m.copy
	return func() tea.Msg {
		return clipboardMsg{err: copyFn(last.Content)}
	}
}

func (m Model) countTokens() tea.Cmd {
	if !m.showSidebar || m.tokens == nil {
		return nil
	}
	counter := m.tokens
	turns := m.state.All()
	return func() tea.Msg {
		n, err := counter.Count(transcriptText(turns))
		return tokenCountMsg{turns: len(turns), tokens: n, err: err}
	}
}

func (m *Model) openConfirm() tea.Cmd {
	confirmed := false
	m.confirmReset = &confirmed
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset the conversation?").
				Description(fmt.Sprintf("This forgets all %d turns.", m.state.Len())).
				Affirmative("Reset").
				Negative("Keep").
				Value(m.confirmReset),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(false)
	return m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			m.confirm = nil
			m.confirmReset = nil
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
	}

	fm, cmd := safeFormUpdate(m.confirm, msg)
	if f, ok := fm.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		reset := m.confirmReset != nil && *m.confirmReset
		m.confirm = nil
		m.confirmReset = nil
		if reset {
			return m, func() tea.Msg { return ResetMsg{} }
		}
		return m, nil
	case huh.StateAborted:
		m.confirm = nil
		m.confirmReset = nil
		return m, nil
	}
	return m, cmd
}

// safeFormUpdate keeps a panic inside the form from taking the whole
// program down; the form is dropped instead.
func safeFormUpdate(form *huh.Form, msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("confirmation form panicked")
			form.State = huh.StateAborted
			model, cmd = form, nil
		}
	}()
	return form.Update(msg)
}

func (m *Model) layout() {
	m.rightWidth = 0
	gutter := 0
	if m.showSidebar {
		right := int(float64(m.width) * 0.25)
		if right < 24 {
			right = 24
		}
		if right > m.width/2 {
			right = m.width / 2
		}
		m.rightWidth = max(0, right-4)
		gutter = 4
		m.sidebar, _ = m.sidebar.Update(SetSidebarSizeMsg{Width: m.rightWidth})
	}

	m.leftWidth = max(minMainWidth, m.width-m.rightWidth-gutter)
	m.viewport.Width = m.leftWidth
	m.viewport.Height = max(3, m.height-chromeHeight)
	m.input.Width = max(10, m.leftWidth-8)
	m.help.Width = m.leftWidth

	md, err := m.markdown.Resize(m.leftWidth - 4)
	if err != nil {
		m.logger.Debug().Err(err).Msg("could not resize markdown renderer")
		return
	}
	m.markdown = md
}

func (m *Model) refresh() {
	m.sidebar.setTurns(m.state.Len())
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m Model) transcript() string {
	turns := m.state.All()
	if len(turns) == 0 && !m.busy {
		return subtitleStyle.Render(appSubtitle)
	}

	wrap := lipgloss.NewStyle().Width(max(10, m.leftWidth-2))
	blocks := make([]string, 0, len(turns)+1)
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleUser:
			blocks = append(blocks, userStyle.Render("You")+"\n"+wrap.Render(t.Content))
		case conversation.RoleAssistant:
			blocks = append(blocks, assistantStyle.Render("Assistant")+"\n"+m.markdown.Render(t.Content))
		}
	}
	if m.busy {
		blocks = append(blocks, m.spinner.View()+" "+thinking)
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) footerLine() string {
	switch {
	case m.notice != nil && m.notice.Severity == session.SeverityWarning:
		return warnStyle.Render(m.notice.Text)
	case m.notice != nil:
		return errorStyle.Render(m.notice.Text)
	case m.status != "":
		return faintStyle.Render(m.status)
	}
	return ""
}

func (m Model) View() string {
	header := titleStyle.Render(appTitle)
	input := inputStyle.Width(max(10, m.leftWidth-2)).Render(m.input.View())
	left := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.footerLine(),
		input,
		faintStyle.Render(m.help.View(m.keys)),
	)
	left = lipgloss.NewStyle().Width(m.leftWidth).Render(left)

	view := left
	if m.showSidebar && m.rightWidth > 0 {
		view = lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", m.sidebar.View())
	}

	if m.confirm != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, formStyle.Render(m.confirm.View()))
	}
	return view
}
