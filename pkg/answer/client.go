// Package answer talks to the remote question-answering service.
//
// A Client sends one question per call as
//
//	POST {base}/ask/
//	{"question": "..."}
//
// and returns the "answer" field of the JSON reply. Every failure is reported
// as an *Error whose Kind tells the caller what went wrong. There are no
// retries; the caller decides whether to ask again.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single call, including reading the response body.
const DefaultTimeout = 60 * time.Second

// Answer is a successful reply. Extra holds every other top-level key of the
// response object.
type Answer struct {
	Text  string
	Extra map[string]json.RawMessage
}

type askRequest struct {
	Question string `json:"question"`
}

// Exchange describes one completed call. It is handed to the Observer when
// debugging is enabled.
type Exchange struct {
	RequestID string
	URL       string
	Status    int
	Header    http.Header
	Duration  time.Duration
	Err       error
}

type Observer func(Exchange)

type Client struct {
	endpoint   Endpoint
	httpClient *http.Client
	timeout    time.Duration
	observer   Observer
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver registers a callback that receives the URL, status and
// response headers of every call.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(endpoint Endpoint, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = cleanhttp.DefaultClient()
		c.httpClient.Timeout = c.timeout
	}
	return c
}

func (c *Client) Endpoint() Endpoint { return c.endpoint }

func (c *Client) Timeout() time.Duration { return c.timeout }

// Ask sends question to the service and waits for the reply or the timeout.
// The returned error, if any, is an *Error.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.NewString()
	askURL := c.endpoint.AskURL()
	logger := c.logger.With().
		Str("request_id", requestID).
		Str("url", askURL).
		Logger()

	start := time.Now()
	ans, status, header, err := c.do(ctx, askURL, question)
	duration := time.Since(start)

	if c.observer != nil {
		c.observer(Exchange{
			RequestID: requestID,
			URL:       askURL,
			Status:    status,
			Header:    header,
			Duration:  duration,
			Err:       err,
		})
	}

	if err != nil {
		logger.Warn().
			Err(err).
			Int("status", status).
			Str("kind", KindOf(err).String()).
			Dur("duration", duration).
			Msg("ask failed")
		return nil, err
	}

	logger.Debug().
		Int("status", status).
		Dur("duration", duration).
		Int("answer_len", len(ans.Text)).
		Msg("ask succeeded")
	return ans, nil
}

func (c *Client) do(ctx context.Context, askURL string, question string) (*Answer, int, http.Header, error) {
	bodyData, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return nil, 0, nil, &Error{Kind: KindUnknown, Message: "failed to marshal request body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, askURL, bytes.NewReader(bodyData))
	if err != nil {
		return nil, 0, nil, &Error{Kind: KindUnknown, Message: errors.Wrap(err, "failed to create request").Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, classify(err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, resp.Header, remoteError(resp.StatusCode, string(respBody))
	}

	ans, aerr := parseAnswer(respBody)
	if aerr != nil {
		return nil, resp.StatusCode, resp.Header, aerr
	}
	return ans, resp.StatusCode, resp.Header, nil
}

func parseAnswer(body []byte) (*Answer, *Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, malformed("response body is not a JSON object", err)
	}

	raw, ok := fields["answer"]
	if !ok {
		return nil, malformed(`response has no "answer" field`, nil)
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return nil, malformed(`"answer" field is null`, nil)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		// non-string answers are shown as their JSON text
		text = trimmed
	}

	delete(fields, "answer")
	if len(fields) == 0 {
		fields = nil
	}
	return &Answer{Text: text, Extra: fields}, nil
}
