package ui

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/go-go-golems/askchat/pkg/render"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	questions []string
	reply     *answer.Answer
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, question string) (*answer.Answer, error) {
	f.questions = append(f.questions, question)
	return f.reply, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(string) (int, error) { return f.n, f.err }

func newTestModel(asker *fakeAsker) Model {
	m := NewModel(Options{
		Asker:    asker,
		Endpoint: "http://localhost:8000/ask/",
		Ready:    true,
		Debug:    true,
		MaxTurns: 4,
		Style:    render.StyleNoTTY,
		Tokens:   fakeCounter{n: 12},
		Copy:     func(string) error { return nil },
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// run executes cmd and every command batched inside it, returning the
// resulting messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func find[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func typeAndSubmit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestSubmit_AppendsUserTurnAndMarksBusy(t *testing.T) {
	asker := &fakeAsker{reply: &answer.Answer{Text: "**42**"}}
	m := newTestModel(asker)

	m, cmd := typeAndSubmit(t, m, "  what is the answer?  ")
	assert.True(t, m.Busy())
	assert.Empty(t, m.input.Value())
	assert.Equal(t, []conversation.Turn{conversation.NewUserTurn("what is the answer?")}, m.State().All())
	assert.Contains(t, m.View(), "Thinking")

	msg, ok := find[answerMsg](run(cmd))
	require.True(t, ok)
	assert.Equal(t, []string{"what is the answer?"}, asker.questions)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.False(t, m.Busy())
	assert.Nil(t, m.Notice())
	require.Equal(t, 2, m.State().Len())
	last, _ := m.State().Last()
	assert.Equal(t, conversation.NewAssistantTurn("**42**"), last)
	assert.Contains(t, m.View(), "42")
}

func TestSubmit_EmptyInputDoesNothing(t *testing.T) {
	asker := &fakeAsker{}
	m := newTestModel(asker)

	m, cmd := typeAndSubmit(t, m, "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.Busy())
	assert.Equal(t, 0, m.State().Len())
	assert.Empty(t, asker.questions)
}

func TestSubmit_IgnoredWhileBusy(t *testing.T) {
	m := newTestModel(&fakeAsker{reply: &answer.Answer{Text: "ok"}})
	m, _ = typeAndSubmit(t, m, "first")
	require.True(t, m.Busy())

	m, cmd := typeAndSubmit(t, m, "second")
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.State().Len())
	assert.Equal(t, "second", m.input.Value())
}

func TestAnswerFailure_ShowsNoticeAndKeepsUserTurn(t *testing.T) {
	asker := &fakeAsker{err: &answer.Error{Kind: answer.KindTimeout}}
	m := newTestModel(asker)

	m, cmd := typeAndSubmit(t, m, "slow question")
	msg, ok := find[answerMsg](run(cmd))
	require.True(t, ok)

	next, _ := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, m.Notice())
	assert.Equal(t, answer.KindTimeout, m.Notice().Kind)
	assert.Equal(t, []conversation.Turn{conversation.NewUserTurn("slow question")}, m.State().All())
	assert.Contains(t, m.View(), "Request timed out")

	// the next submission clears the notice
	m, _ = typeAndSubmit(t, m, "again")
	assert.Nil(t, m.Notice())
}

func TestHistoryIsCapped(t *testing.T) {
	asker := &fakeAsker{reply: &answer.Answer{Text: "a"}}
	m := newTestModel(asker)

	for i := 0; i < 5; i++ {
		var cmd tea.Cmd
		m, cmd = typeAndSubmit(t, m, "q")
		msg, ok := find[answerMsg](run(cmd))
		require.True(t, ok)
		next, _ := m.Update(msg)
		m = next.(Model)
		assert.LessOrEqual(t, m.State().Len(), 4)
	}
	assert.Equal(t, 4, m.State().Len())
}

func TestSidebarToggle(t *testing.T) {
	m := newTestModel(&fakeAsker{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m = next.(Model)
	assert.NotContains(t, m.View(), "API Configuration loaded")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	m = next.(Model)
	assert.True(t, m.showSidebar)
	assert.Greater(t, m.rightWidth, 0)

	count, ok := find[tokenCountMsg](run(cmd))
	require.True(t, ok)
	next, _ = m.Update(count)
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "API Configuration loaded")
	assert.Contains(t, view, "Turns: 0/4")
	assert.Contains(t, view, "~12")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	m = next.(Model)
	assert.False(t, m.showSidebar)
	assert.Equal(t, 0, m.rightWidth)
}

func TestSidebar_MissingKeyAndDebugExchange(t *testing.T) {
	sb := NewSidebarModel(false, "http://h/ask/", true, 6)
	sb, _ = sb.Update(SetSidebarSizeMsg{Width: 60})
	assert.Contains(t, sb.View(), "API Configuration missing")
	assert.Contains(t, sb.View(), "no request yet")

	sb, _ = sb.Update(ExchangeMsg{
		RequestID: "req-1",
		URL:       "http://h/ask/",
		Status:    200,
		Header:    http.Header{"Content-Type": []string{"application/json"}},
		Duration:  120 * time.Millisecond,
	})
	view := sb.View()
	assert.Contains(t, view, "Status: 200")
	assert.Contains(t, view, "Content-Type: application/json")

	sb, _ = sb.Update(tokenCountMsg{err: errors.New("offline")})
	assert.Contains(t, sb.View(), "n/a")
}

func TestTokenCountForOlderTranscriptIsDropped(t *testing.T) {
	m := newTestModel(&fakeAsker{})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	m = next.(Model)

	next, _ = m.Update(tokenCountMsg{turns: 3, tokens: 99})
	m = next.(Model)
	assert.NotContains(t, m.View(), "~99")
}

func TestResetConfirmation(t *testing.T) {
	asker := &fakeAsker{reply: &answer.Answer{Text: "a"}}
	m := newTestModel(asker)
	m, cmd := typeAndSubmit(t, m, "q")
	msg, _ := find[answerMsg](run(cmd))
	next, _ := m.Update(msg)
	m = next.(Model)
	require.Equal(t, 2, m.State().Len())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), "Reset the conversation?")

	*m.confirmReset = true
	m.confirm.State = huh.StateCompleted
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, m.confirm)

	reset, ok := find[ResetMsg](run(cmd))
	require.True(t, ok)
	next, _ = m.Update(reset)
	m = next.(Model)
	assert.Equal(t, 0, m.State().Len())
	assert.Equal(t, 4, m.State().Max())
}

func TestResetConfirmation_DeclinedOrCancelled(t *testing.T) {
	m := newTestModel(&fakeAsker{})
	m.state = m.state.Append(conversation.NewUserTurn("keep me"))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	m.confirm.State = huh.StateCompleted
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, m.confirm)
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.State().Len())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Nil(t, m.confirm)
	assert.Equal(t, 1, m.State().Len())
}

func TestResetBlockedWhileBusy(t *testing.T) {
	m := newTestModel(&fakeAsker{})
	m, _ = typeAndSubmit(t, m, "q")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
}

func TestCopyLastAnswer(t *testing.T) {
	var copied string
	m := newTestModel(&fakeAsker{})
	m.copy = func(s string) error { copied = s; return nil }

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	clip, ok := find[clipboardMsg](run(cmd))
	require.True(t, ok)
	assert.Error(t, clip.err)
	assert.Empty(t, copied)

	m.state = m.state.
		Append(conversation.NewUserTurn("q")).
		Append(conversation.NewAssistantTurn("the answer"))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	clip, ok = find[clipboardMsg](run(cmd))
	require.True(t, ok)
	assert.NoError(t, clip.err)
	assert.Equal(t, "the answer", copied)

	next, _ := m.Update(clip)
	assert.True(t, strings.Contains(next.(Model).View(), "Copied last answer"))
}

func TestQuit(t *testing.T) {
	m := newTestModel(&fakeAsker{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	msgs := run(cmd)
	_, ok := find[tea.QuitMsg](msgs)
	assert.True(t, ok)
}
