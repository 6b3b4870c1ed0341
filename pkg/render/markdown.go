// Package render turns assistant answers (markdown) into terminal text.
package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"

	DefaultWidth = 80
	minWidth     = 20
)

// DetectStyle picks a glamour style for stdout.
func DetectStyle() string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return StyleNoTTY
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

// TerminalWidth returns the width of stdout, or DefaultWidth when it is not a
// terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Markdown wraps a glamour renderer for a fixed width and style. The zero
// value is not usable; use NewMarkdown.
type Markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func NewMarkdown(style string, width int) (*Markdown, error) {
	if width < minWidth {
		width = minWidth
	}
	if style == "" {
		style = DetectStyle()
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create markdown renderer with style %s", style)
	}
	return &Markdown{style: style, width: width, renderer: r}, nil
}

func (m *Markdown) Width() int    { return m.width }
func (m *Markdown) Style() string { return m.style }

// Resize returns a renderer for the new width, or m itself when the width
// is unchanged.
func (m *Markdown) Resize(width int) (*Markdown, error) {
	if width < minWidth {
		width = minWidth
	}
	if m != nil && width == m.width {
		return m, nil
	}
	style := ""
	if m != nil {
		style = m.style
	}
	return NewMarkdown(style, width)
}

// Render renders text as markdown. If glamour fails, the text is returned
// as is.
func (m *Markdown) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
