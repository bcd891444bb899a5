// Package transport is the single request layer every NYRA capability goes through.
// It injects JSON headers, serializes bodies and turns non-2xx answers into errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/redact"
)

// Method is an HTTP method accepted by the transport.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Valid reports whether m belongs to the supported method set.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// Envelope is the raw JSON returned by a successful request.
type Envelope json.RawMessage

// Decode unmarshals the envelope into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e, v)
}

// Map decodes the envelope as a JSON object.
func (e Envelope) Map() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(e, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Indent returns the envelope pretty-printed, or the raw bytes if that fails.
func (e Envelope) Indent() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, e, "", "  "); err != nil {
		return string(e)
	}
	return buf.String()
}

// MarshalJSON keeps the envelope verbatim when it is re-encoded.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("null"), nil
	}
	return e, nil
}

// Requester is the contract consumed by the capability client.
type Requester interface {
	Request(ctx context.Context, endpoint string, method Method, body any) (Envelope, error)
}

// Config holds the shared transport configuration. It is read-only after New.
type Config struct {
	BaseURL    string
	Headers    map[string]string
	Timeout    time.Duration // zero leaves timeouts to the network stack
	HTTPClient *http.Client  // optional, overrides Timeout
}

// Client implements Requester over net/http.
type Client struct {
	baseURL string
	headers http.Header
	http    *http.Client
}

const maxLoggedBody = 200

// New creates a transport client.
func New(cfg Config) *Client {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		http:    hc,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Request issues exactly one call to baseURL+endpoint.
func (c *Client) Request(ctx context.Context, endpoint string, method Method, body any) (Envelope, error) {
	return c.RequestWithHeaders(ctx, endpoint, method, body, nil)
}

// RequestWithHeaders is Request with per-call headers merged over the defaults.
func (c *Client) RequestWithHeaders(ctx context.Context, endpoint string, method Method, body any, extra map[string]string) (Envelope, error) {
	url := c.baseURL + endpoint

	req, err := c.build(ctx, url, endpoint, method, body, extra)
	if err != nil {
		terr := &TransportError{Op: "build", URL: url, Err: err}
		c.logFailure(method, endpoint, url, 0, nil, terr)
		return nil, terr
	}

	resp, err := c.http.Do(req)
	if err != nil {
		terr := &TransportError{Op: "send", URL: url, Err: err}
		c.logFailure(method, endpoint, url, 0, nil, terr)
		return nil, terr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{Op: "read", URL: url, Err: err}
		c.logFailure(method, endpoint, url, resp.StatusCode, nil, terr)
		return nil, terr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{
			Status:   resp.StatusCode,
			Method:   string(method),
			Endpoint: endpoint,
			Body:     respBody,
		}
		c.logFailure(method, endpoint, url, resp.StatusCode, respBody, herr)
		return nil, herr
	}

	if !json.Valid(respBody) {
		terr := &TransportError{Op: "decode", URL: url, Err: errors.New("response is not valid JSON")}
		c.logFailure(method, endpoint, url, resp.StatusCode, respBody, terr)
		return nil, terr
	}

	return Envelope(respBody), nil
}

func (c *Client) build(ctx context.Context, url, endpoint string, method Method, body any, extra map[string]string) (*http.Request, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint", ErrInvalidRequest)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, method)
	}

	var reader io.Reader
	if body != nil && method != MethodGet {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Client) logFailure(method Method, endpoint, url string, status int, body []byte, err error) {
	l := nlog.WithComponent("transport")
	ev := l.Error().
		Str(nlog.FieldMethod, string(method)).
		Str(nlog.FieldEndpoint, endpoint).
		Str(nlog.FieldURL, redact.URL(url))
	if status > 0 {
		ev = ev.Int(nlog.FieldStatus, status)
	}
	if len(body) > 0 {
		ev = ev.Str("body", redact.Snippet(body, maxLoggedBody))
	}
	ev.Err(err).Msg("API request failed")
}
