package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	questions []string
	ans       *answer.Answer
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, question string) (*answer.Answer, error) {
	f.questions = append(f.questions, question)
	return f.ans, f.err
}

func TestSubmit_SuccessAgainstHTTPEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": "42"}`))
	}))
	defer server.Close()

	endpoint, err := answer.NewEndpoint(server.URL)
	require.NoError(t, err)
	client := answer.NewClient(endpoint)

	state, outcome := Submit(context.Background(), client, conversation.New(6), "what is the answer?")
	require.True(t, outcome.OK())
	assert.Equal(t, "42", outcome.Answer.Text)
	assert.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Content: "what is the answer?"},
		{Role: conversation.RoleAssistant, Content: "42"},
	}, state.All())
}

func TestSubmit_FailureKeepsUserTurnOnly(t *testing.T) {
	asker := &fakeAsker{err: &answer.Error{Kind: answer.KindRemote, Status: 500, Body: "server error"}}
	initial := conversation.New(6).
		Append(conversation.NewUserTurn("earlier")).
		Append(conversation.NewAssistantTurn("reply"))

	state, outcome := Submit(context.Background(), asker, initial, "  again?  ")
	require.NotNil(t, outcome.Notice)
	assert.False(t, outcome.OK())
	assert.Equal(t, "Error: 500 - server error", outcome.Notice.Text)
	assert.Equal(t, []string{"again?"}, asker.questions)

	turns := state.All()
	require.Len(t, turns, 3)
	assert.Equal(t, conversation.NewUserTurn("again?"), turns[2])
}

func TestSubmit_EmptyInputIsSkipped(t *testing.T) {
	asker := &fakeAsker{ans: &answer.Answer{Text: "unused"}}
	initial := conversation.New(6).Append(conversation.NewUserTurn("hi"))

	state, outcome := Submit(context.Background(), asker, initial, "   \n\t")
	assert.True(t, outcome.Skipped)
	assert.False(t, outcome.OK())
	assert.Empty(t, asker.questions)
	assert.Equal(t, initial.All(), state.All())
}

func TestSubmit_TruncatesAfterAssistantTurn(t *testing.T) {
	asker := &fakeAsker{ans: &answer.Answer{Text: "a"}}
	state := conversation.New(6)
	for i := 0; i < 5; i++ {
		state, _ = Submit(context.Background(), asker, state, "q")
		assert.LessOrEqual(t, state.Len(), 6)
	}
	assert.Equal(t, 6, state.Len())
	first := state.All()[0]
	assert.Equal(t, conversation.RoleUser, first.Role)
}

func TestComplete_NilAnswerIsMalformed(t *testing.T) {
	state := Begin(conversation.New(6), "q")
	next, notice := Complete(state, nil, nil)
	require.NotNil(t, notice)
	assert.Equal(t, answer.KindMalformedResponse, notice.Kind)
	assert.Equal(t, state.All(), next.All())
}

func TestNoticeFor(t *testing.T) {
	cases := []struct {
		err  error
		want string
		kind answer.Kind
	}{
		{&answer.Error{Kind: answer.KindConnection}, "❌ Failed to connect to the API. Please try again later.", answer.KindConnection},
		{&answer.Error{Kind: answer.KindTimeout}, "⏱️ Request timed out. The server took too long to respond.", answer.KindTimeout},
		{&answer.Error{Kind: answer.KindRemote, Status: 404, Body: "not found"}, "Error: 404 - not found", answer.KindRemote},
		{&answer.Error{Kind: answer.KindMalformedResponse, Message: "x"}, "❌ An error occurred: unexpected response from the API", answer.KindMalformedResponse},
		{&answer.Error{Kind: answer.KindUnknown, Message: "tls: bad certificate"}, "❌ An error occurred: tls: bad certificate", answer.KindUnknown},
		{errors.New("plain failure"), "❌ An error occurred: plain failure", answer.KindUnknown},
	}
	for _, tc := range cases {
		n := NoticeFor(tc.err)
		assert.Equal(t, tc.want, n.Text)
		assert.Equal(t, tc.kind, n.Kind)
	}
	assert.Equal(t, SeverityWarning, NoticeFor(&answer.Error{Kind: answer.KindTimeout}).Severity)
}
