package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func newCaptureServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured, *int32) {
	t.Helper()
	var calls int32
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		got.method = r.Method
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, got, &calls
}

func TestRequestBodyPresenceByMethod(t *testing.T) {
	tests := []struct {
		name     string
		method   Method
		body     any
		wantBody bool
	}{
		{"post with body", MethodPost, map[string]any{"prompt": "hi"}, true},
		{"get drops body", MethodGet, map[string]any{"prompt": "hi"}, false},
		{"post without body", MethodPost, nil, false},
		{"put with body", MethodPut, map[string]any{"a": 1}, true},
		{"delete with body", MethodDelete, map[string]any{"a": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got, calls := newCaptureServer(t, http.StatusOK, `{"ok":true}`)
			c := New(Config{BaseURL: srv.URL})

			env, err := c.Request(context.Background(), "/api/test", tt.method, tt.body)
			require.NoError(t, err)

			assert.Equal(t, int32(1), atomic.LoadInt32(calls), "exactly one network call")
			assert.Equal(t, string(tt.method), got.method)
			assert.Equal(t, "/api/test", got.path)
			assert.Equal(t, "application/json", got.contentType)
			if tt.wantBody {
				assert.JSONEq(t, mustJSON(t, tt.body), string(got.body))
			} else {
				assert.Empty(t, got.body)
			}
			assert.JSONEq(t, `{"ok":true}`, string(env))
		})
	}
}

func TestRequestNonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv, _, _ := newCaptureServer(t, status, `{"error":"boom"}`)
		c := New(Config{BaseURL: srv.URL})

		env, err := c.Request(context.Background(), "/api/chrome-ai/summarize", MethodPost, map[string]any{"text": "x"})
		require.Error(t, err)
		assert.Nil(t, env, "error body must never be returned as a result")

		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, status, httpErr.Status)
		assert.Equal(t, status, StatusCode(err))
		assert.Equal(t, "/api/chrome-ai/summarize", httpErr.Endpoint)
		assert.JSONEq(t, `{"error":"boom"}`, string(httpErr.Body))
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &HTTPError{Status: 500}
	assert.Equal(t, "HTTP error! status: 500", err.Error())
}

func TestRequestInvalidJSONResponse(t *testing.T) {
	srv, _, _ := newCaptureServer(t, http.StatusOK, `<html>not json</html>`)
	c := New(Config{BaseURL: srv.URL})

	_, err := c.Request(context.Background(), "/health", MethodGet, nil)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "decode", terr.Op)
}

func TestRequestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url})
	_, err := c.Request(context.Background(), "/health", MethodGet, nil)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "send", terr.Op)
	assert.NotNil(t, errors.Unwrap(err))
	assert.Zero(t, StatusCode(err))
}

func TestRequestRejectsInvalidDescriptor(t *testing.T) {
	srv, _, calls := newCaptureServer(t, http.StatusOK, `{}`)
	c := New(Config{BaseURL: srv.URL})

	_, err := c.Request(context.Background(), "", MethodPost, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.Request(context.Background(), "/x", Method("TRACE"), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.Request(context.Background(), "/x", MethodPost, map[string]any{"bad": make(chan int)})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "build", terr.Op)

	assert.Equal(t, int32(0), atomic.LoadInt32(calls), "no network call for rejected requests")
}

func TestRequestHeadersMerge(t *testing.T) {
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", Headers: map[string]string{"X-Client": "nyra"}})
	_, err := c.RequestWithHeaders(context.Background(), "/health", MethodGet, nil, map[string]string{"X-Trace": "abc"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", seen.Get("Content-Type"))
	assert.Equal(t, "nyra", seen.Get("X-Client"))
	assert.Equal(t, "abc", seen.Get("X-Trace"))
	assert.Equal(t, srv.URL, c.BaseURL(), "trailing slash trimmed")
}

func TestEnvelopeHelpers(t *testing.T) {
	env := Envelope(`{"status":"healthy","n":2}`)

	m, err := env.Map()
	require.NoError(t, err)
	assert.Equal(t, "healthy", m["status"])

	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, env.Decode(&out))
	assert.Equal(t, "healthy", out.Status)

	assert.Contains(t, env.Indent(), "\n  \"status\"")

	wrapped, err := json.Marshal(map[string]any{"raw": env})
	require.NoError(t, err)
	assert.JSONEq(t, `{"raw":{"status":"healthy","n":2}}`, string(wrapped))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
