package answer

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "https://langchain-01.onrender.com"

const askSuffix = "/ask/"

// Endpoint describes where questions are sent. It is read once at startup.
type Endpoint struct {
	BaseURL string
}

// NewEndpoint validates baseURL and returns the endpoint. An empty baseURL
// selects DefaultBaseURL.
func NewEndpoint(baseURL string) (Endpoint, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := ValidateBaseURL(baseURL); err != nil {
		return Endpoint{}, err
	}
	return Endpoint{BaseURL: baseURL}, nil
}

// AskURL strips trailing slashes from the base and appends "/ask/". A base
// that already names the ask path only gets its trailing slash back.
func (e Endpoint) AskURL() string {
	base := strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, strings.TrimSuffix(askSuffix, "/")) {
		return base + "/"
	}
	return base + askSuffix
}

// ValidateBaseURL accepts absolute http and https URLs with a host.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid API URL %q", raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return errors.Errorf("invalid API URL %q: missing scheme (expected http:// or https://)", raw)
	default:
		return errors.Errorf("invalid API URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return errors.Errorf("invalid API URL %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.Errorf("invalid API URL %q: query and fragment are not allowed", raw)
	}
	return nil
}
