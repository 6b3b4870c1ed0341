package answer

import (
	"context"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/pkg/errors"
)

// Kind classifies why a call to the answering service failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindTimeout
	KindRemote
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindRemote:
		return "remote"
	case KindMalformedResponse:
		return "malformed-response"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by Client.Ask.
//
// Status and Body are set for KindRemote. Message carries a human readable
// description for KindUnknown and KindMalformedResponse.
type Error struct {
	Kind    Kind
	Status  int
	Body    string
	Message string
	Err     error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrConnection        = &Error{Kind: KindConnection}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrRemote            = &Error{Kind: KindRemote}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrUnknown           = &Error{Kind: KindUnknown}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindRemote:
		return fmt.Sprintf("answer service returned status %d: %s", e.Status, e.Body)
	case KindConnection:
		if e.Err != nil {
			return "could not connect to answer service: " + e.Err.Error()
		}
		return "could not connect to answer service"
	case KindTimeout:
		return "answer service request timed out"
	case KindMalformedResponse:
		return "malformed answer service response: " + e.Message
	default:
		if e.Message != "" {
			return "answer service request failed: " + e.Message
		}
		return "answer service request failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func remoteError(status int, body string) *Error {
	return &Error{Kind: KindRemote, Status: status, Body: body}
}

func malformed(msg string, err error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: msg, Err: err}
}

// classify maps a transport error to an *Error.
func classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindConnection, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &Error{Kind: KindConnection, Err: err}
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{Kind: KindConnection, Err: err}
	}

	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}
