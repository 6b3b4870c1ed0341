package ui

import (
	"strings"
	"sync"

	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/weaviate/tiktoken-go"
)

// TokenCounter estimates how many tokens a text takes.
type TokenCounter interface {
	Count(text string) (int, error)
}

// tiktokenCounter loads the encoding on first use. A load failure is
// remembered and returned on every call.
type tiktokenCounter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewTiktokenCounter(encoding string) TokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &tiktokenCounter{encoding: encoding}
}

func (c *tiktokenCounter) Count(text string) (int, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(c.encoding)
		if c.err != nil {
			c.err = errors.Wrapf(c.err, "could not load %s encoding", c.encoding)
		}
	})
	if c.err != nil {
		return 0, c.err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

func transcriptText(turns []conversation.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
