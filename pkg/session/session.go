// Package session applies one user submission to the conversation.
//
// The flow is: append the user turn, ask the answering service, and on
// success append the assistant turn. On failure the user turn stays, no
// assistant turn is added, and a Notice describes what happened. The state is
// passed in and returned; nothing here keeps it between calls.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/pkg/errors"
)

// Asker is the part of answer.Client the flow needs.
type Asker interface {
	Ask(ctx context.Context, question string) (*answer.Answer, error)
}

var _ Asker = (*answer.Client)(nil)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Notice is a user-facing message describing a failed submission.
type Notice struct {
	Kind     answer.Kind
	Severity Severity
	Text     string
}

func (n Notice) String() string { return n.Text }

// Outcome is the result of Submit.
type Outcome struct {
	// Skipped is set when the submission was empty and nothing happened.
	Skipped bool
	Answer  *answer.Answer
	Notice  *Notice
}

func (o Outcome) OK() bool { return !o.Skipped && o.Notice == nil }

// Normalize trims the submission. An empty result means nothing to send.
func Normalize(text string) (string, bool) {
	text = strings.TrimSpace(text)
	return text, text != ""
}

// Begin appends the user turn.
func Begin(state conversation.State, question string) conversation.State {
	return state.Append(conversation.NewUserTurn(question))
}

// Complete applies the reply of the answering service. On success the
// assistant turn is appended; on failure the state is returned unchanged with
// a notice.
func Complete(state conversation.State, ans *answer.Answer, err error) (conversation.State, *Notice) {
	if err != nil {
		n := NoticeFor(err)
		return state, &n
	}
	if ans == nil {
		n := NoticeFor(&answer.Error{Kind: answer.KindMalformedResponse, Message: "empty reply"})
		return state, &n
	}
	return state.Append(conversation.NewAssistantTurn(ans.Text)), nil
}

// Submit runs the whole flow synchronously.
func Submit(ctx context.Context, asker Asker, state conversation.State, text string) (conversation.State, Outcome) {
	question, ok := Normalize(text)
	if !ok {
		return state, Outcome{Skipped: true}
	}

	state = Begin(state, question)
	ans, err := asker.Ask(ctx, question)
	state, notice := Complete(state, ans, err)
	if notice != nil {
		return state, Outcome{Notice: notice}
	}
	return state, Outcome{Answer: ans}
}

// NoticeFor turns an error from the answering service into the message shown
// to the user.
func NoticeFor(err error) Notice {
	kind := answer.KindOf(err)
	n := Notice{Kind: kind, Severity: SeverityError}

	var aerr *answer.Error
	_ = errors.As(err, &aerr)

	switch kind {
	case answer.KindConnection:
		n.Text = "❌ Failed to connect to the API. Please try again later."
	case answer.KindTimeout:
		n.Severity = SeverityWarning
		n.Text = "⏱️ Request timed out. The server took too long to respond."
	case answer.KindRemote:
		n.Text = fmt.Sprintf("Error: %d - %s", aerr.Status, aerr.Body)
	case answer.KindMalformedResponse:
		n.Text = "❌ An error occurred: unexpected response from the API"
	default:
		msg := ""
		if aerr != nil {
			msg = aerr.Message
		}
		if msg == "" && err != nil {
			msg = err.Error()
		}
		n.Text = "❌ An error occurred: " + msg
	}
	return n
}
