package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/askchat/pkg/answer"
)

const aboutText = `This assistant is powered by:
- Groq API
- Langchain
- a terminal client`

// SetSidebarSizeMsg informs the sidebar of its width
type SetSidebarSizeMsg struct {
	Width int
}

// ExchangeMsg carries the diagnostics of one request to the UI.
type ExchangeMsg answer.Exchange

type tokenCountMsg struct {
	turns  int
	tokens int
	err    error
}

type SidebarModel struct {
	width int

	ready    bool
	endpoint string
	debug    bool

	turns    int
	maxTurns int

	tokens     int
	tokensErr  error
	tokensSeen bool

	last *answer.Exchange
}

func NewSidebarModel(ready bool, endpoint string, debug bool, maxTurns int) SidebarModel {
	return SidebarModel{
		width:    28,
		ready:    ready,
		endpoint: endpoint,
		debug:    debug,
		maxTurns: maxTurns,
	}
}

func (m SidebarModel) Init() tea.Cmd { return nil }

func (m SidebarModel) Update(msg tea.Msg) (SidebarModel, tea.Cmd) {
	switch ev := msg.(type) {
	case SetSidebarSizeMsg:
		if ev.Width > 0 {
			m.width = ev.Width
		}
	case tokenCountMsg:
		m.tokens = ev.tokens
		m.tokensErr = ev.err
		m.tokensSeen = true
	case ExchangeMsg:
		ex := answer.Exchange(ev)
		m.last = &ex
	}
	return m, nil
}

func (m *SidebarModel) setTurns(turns int) {
	m.turns = turns
}

func (m SidebarModel) View() string {
	var sb strings.Builder

	sb.WriteString(subHeaderStyle.Render("⚙️ Configuration (Ctrl+G)"))
	sb.WriteString("\n\n")
	if m.ready {
		sb.WriteString(okStyle.Render("✅ API Configuration loaded"))
	} else {
		sb.WriteString(warnStyle.Render("⚠️ API Configuration missing"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(faintStyle.Render("Endpoint"))
	sb.WriteString("\n")
	sb.WriteString(m.endpoint)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Turns: %d/%d\n", m.turns, m.maxTurns))
	sb.WriteString("Tokens: " + m.tokensLabel() + "\n\n")

	sb.WriteString(subHeaderStyle.Render("About"))
	sb.WriteString("\n")
	sb.WriteString(aboutText)

	if m.debug {
		sb.WriteString("\n\n")
		sb.WriteString(subHeaderStyle.Render("Debug"))
		sb.WriteString("\n")
		sb.WriteString(m.debugView())
	}

	return sidebarStyle.Width(m.width).Render(sb.String())
}

func (m SidebarModel) tokensLabel() string {
	switch {
	case !m.tokensSeen:
		return "…"
	case m.tokensErr != nil:
		return "n/a"
	default:
		return fmt.Sprintf("~%d", m.tokens)
	}
}

func (m SidebarModel) debugView() string {
	if m.last == nil {
		return faintStyle.Render("no request yet")
	}
	ex := m.last
	lines := []string{
		"URL: " + ex.URL,
		"Request: " + ex.RequestID,
	}
	if ex.Status > 0 {
		lines = append(lines, fmt.Sprintf("Status: %d", ex.Status))
	}
	lines = append(lines, "Took: "+ex.Duration.Round(time.Millisecond).String())
	if ex.Err != nil {
		lines = append(lines, errorStyle.Render("Error: "+answer.KindOf(ex.Err).String()))
	}
	if len(ex.Header) > 0 {
		names := make([]string, 0, len(ex.Header))
		for name := range ex.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		lines = append(lines, "Headers:")
		for _, name := range names {
			lines = append(lines, faintStyle.Render("  "+name+": "+strings.Join(ex.Header[name], ", ")))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
