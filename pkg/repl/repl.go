// Package repl is the line-oriented front end used when the terminal cannot
// host the full-screen interface, or when input is piped.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/go-go-golems/askchat/pkg/render"
	"github.com/go-go-golems/askchat/pkg/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	input "github.com/tcnksm/go-input"
)

const (
	cmdReset = "/reset"
	cmdQuit  = "/quit"
	cmdExit  = "/exit"
	cmdHelp  = "/help"

	helpText = `Type a question and press enter.
  /reset  forget the conversation
  /quit   leave (Ctrl-D works too)`
)

type Options struct {
	In  io.Reader
	Out io.Writer
	// Err receives notices and the thinking indicator. Defaults to Out.
	Err io.Writer

	MaxTurns int
	Markdown *render.Markdown
	// Interactive prints the banner, prompts and the thinking indicator.
	Interactive bool
}

type REPL struct {
	asker session.Asker
	state conversation.State

	lines   *lineReader
	scanner *bufio.Scanner
	out     io.Writer
	errOut  io.Writer

	markdown    *render.Markdown
	interactive bool
}

func New(asker session.Asker, opts Options) *REPL {
	lr := &lineReader{r: bufio.NewReader(opts.In)}
	errOut := opts.Err
	if errOut == nil {
		errOut = opts.Out
	}
	return &REPL{
		asker:       asker,
		state:       conversation.New(opts.MaxTurns),
		lines:       lr,
		scanner:     bufio.NewScanner(lr),
		out:         opts.Out,
		errOut:      errOut,
		markdown:    opts.Markdown,
		interactive: opts.Interactive,
	}
}

func (r *REPL) State() conversation.State { return r.state }

// Run reads questions until EOF, /quit, or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if r.interactive {
		_, _ = fmt.Fprintln(r.out, "🤖 AI Chat Assistant")
		_, _ = fmt.Fprintln(r.out, "Ask me anything and I'll help you find the answer! (/help for commands)")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.interactive {
			_, _ = fmt.Fprint(r.out, "\u001b[94mYou\u001b[0m: ")
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return errors.Wrap(err, "could not read input")
			}
			if r.interactive {
				_, _ = fmt.Fprintln(r.out)
			}
			return nil
		}
		line := r.scanner.Text()

		switch strings.TrimSpace(line) {
		case cmdQuit, cmdExit:
			return nil
		case cmdHelp:
			_, _ = fmt.Fprintln(r.out, helpText)
			continue
		case cmdReset:
			if err := r.reset(); err != nil {
				return err
			}
			continue
		}

		if err := r.ask(ctx, line); err != nil {
			return err
		}
	}
}

func (r *REPL) ask(ctx context.Context, line string) error {
	if _, ok := session.Normalize(line); ok && r.interactive {
		_, _ = fmt.Fprintln(r.errOut, "Thinking... 🤔")
	}

	state, outcome := session.Submit(ctx, r.asker, r.state, line)
	r.state = state

	switch {
	case outcome.Skipped:
	case outcome.Notice != nil:
		log.Debug().Str("kind", outcome.Notice.Kind.String()).Msg("question failed")
		_, _ = fmt.Fprintln(r.errOut, outcome.Notice.Text)
	default:
		if _, err := fmt.Fprintln(r.out, r.markdown.Render(outcome.Answer.Text)); err != nil {
			return errors.Wrap(err, "could not write answer")
		}
	}
	return nil
}

func (r *REPL) reset() error {
	if r.state.Len() == 0 {
		_, _ = fmt.Fprintln(r.out, "Nothing to reset.")
		return nil
	}
	ok, err := r.confirm(fmt.Sprintf("Forget all %d turns? [y/N]", r.state.Len()))
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(r.out, "Kept the conversation.")
		return nil
	}
	r.state = r.state.Reset()
	_, _ = fmt.Fprintln(r.out, "Conversation cleared.")
	return nil
}

func (r *REPL) confirm(query string) (bool, error) {
	ui := &input.UI{
		Writer: r.out,
		Reader: r.lines,
	}
	answer, err := ui.Ask(query, &input.Options{
		Default:   "n",
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(answer string) error {
			switch strings.ToLower(strings.TrimSpace(answer)) {
			case "y", "yes", "n", "no", "":
				return nil
			default:
				return errors.Errorf("please enter 'y' or 'n'")
			}
		},
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to get user input")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// lineReader returns at most one line per Read, so the scanner and the
// confirmation prompt can share one input without either buffering past the
// line it needs.
type lineReader struct {
	r       *bufio.Reader
	pending []byte
}

func (l *lineReader) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		line, err := l.r.ReadBytes('\n')
		if len(line) == 0 {
			return 0, err
		}
		l.pending = line
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}
