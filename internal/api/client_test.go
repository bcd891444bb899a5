package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyra-ai/nyra/internal/transport"
)

type recordedCall struct {
	Endpoint string
	Method   transport.Method
	Body     map[string]any
}

type fakeRequester struct {
	calls []recordedCall
	resp  transport.Envelope
	err   error
}

func (f *fakeRequester) Request(_ context.Context, endpoint string, method transport.Method, body any) (transport.Envelope, error) {
	call := recordedCall{Endpoint: endpoint, Method: method}
	if body != nil {
		raw, _ := json.Marshal(body)
		_ = json.Unmarshal(raw, &call.Body)
	}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return transport.Envelope(`{}`), nil
	}
	return f.resp, nil
}

func TestTranslateBuildsRequest(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)

	_, err := c.Translate(context.Background(), "bonjour", "en", "fr")
	require.NoError(t, err)
	require.Len(t, rt.calls, 1)

	call := rt.calls[0]
	assert.Equal(t, "/api/chrome-ai/translate", call.Endpoint)
	assert.Equal(t, transport.MethodPost, call.Method)
	assert.Equal(t, map[string]any{
		"text":            "bonjour",
		"target_language": "en",
		"source_language": "fr",
	}, call.Body)
}

func TestDefaultsApplied(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)
	ctx := context.Background()

	_, _ = c.Prompt(ctx, "hi", GenerationOptions{})
	_, _ = c.Summarize(ctx, "long text", "", "")
	_, _ = c.Translate(ctx, "hola", "en", "")
	_, _ = c.Write(ctx, "launch email", "", "")
	_, _ = c.Proofread(ctx, "teh text", ProofreadChecks{})
	_, _ = c.Rewrite(ctx, "text", "", "")
	_, _ = c.Generate(ctx, "story", GenerationOptions{})
	_, _ = c.MultiAgent(ctx, "plan", nil)

	require.Len(t, rt.calls, 8)
	assert.Equal(t, 0.7, rt.calls[0].Body["temperature"])
	assert.Equal(t, float64(500), rt.calls[0].Body["max_tokens"])
	assert.Equal(t, "tldr", rt.calls[1].Body["type"])
	assert.Equal(t, "medium", rt.calls[1].Body["length"])
	assert.Equal(t, "auto", rt.calls[2].Body["source_language"])
	assert.Equal(t, "professional", rt.calls[3].Body["tone"])
	assert.Equal(t, "general", rt.calls[3].Body["content_type"])
	assert.Equal(t, true, rt.calls[4].Body["check_grammar"])
	assert.Equal(t, true, rt.calls[4].Body["check_spelling"])
	assert.Equal(t, true, rt.calls[4].Body["check_style"])
	assert.Equal(t, "improve", rt.calls[5].Body["goal"])
	assert.Equal(t, "neutral", rt.calls[5].Body["tone"])
	assert.Equal(t, float64(2048), rt.calls[6].Body["max_tokens"])
	assert.Equal(t, []any{"analyst", "writer", "reviewer"}, rt.calls[7].Body["agents"])
}

func TestExplicitOptionsOverrideDefaults(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)
	zero := 0.0
	off := false

	_, _ = c.Prompt(context.Background(), "hi", GenerationOptions{Temperature: &zero, MaxTokens: 64})
	_, _ = c.Proofread(context.Background(), "text", ProofreadChecks{Style: &off})

	assert.Equal(t, 0.0, rt.calls[0].Body["temperature"])
	assert.Equal(t, float64(64), rt.calls[0].Body["max_tokens"])
	assert.Equal(t, false, rt.calls[1].Body["check_style"])
	assert.Equal(t, true, rt.calls[1].Body["check_grammar"])
}

func TestMultiAgentDoesNotAliasDefaults(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)
	_, _ = c.MultiAgent(context.Background(), "task", nil)
	assert.Equal(t, []string{"analyst", "writer", "reviewer"}, DefaultAgents)
}

func TestGetOperationsSendNoBody(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)

	_, _ = c.Health(context.Background())
	_, _ = c.Analytics(context.Background())
	_, _ = c.Call(context.Background(), OpHealth, map[string]any{"ignored": true})

	require.Len(t, rt.calls, 3)
	for _, call := range rt.calls {
		assert.Equal(t, transport.MethodGet, call.Method)
		assert.Nil(t, call.Body)
	}
	assert.Equal(t, "/health", rt.calls[0].Endpoint)
	assert.Equal(t, "/api/bigquery/analytics", rt.calls[1].Endpoint)
}

func TestCallUnknownOperation(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)

	_, err := c.Call(context.Background(), "teleport", nil)
	require.ErrorIs(t, err, ErrUnknownOperation)
	assert.Empty(t, rt.calls)
}

func TestOperationsRegistry(t *testing.T) {
	assert.Len(t, Operations, 14)
	names := OperationNames()
	assert.Len(t, names, 14)
	assert.IsIncreasing(t, names)
	for name, ep := range Operations {
		assert.True(t, ep.Method.Valid(), name)
		assert.NotEmpty(t, ep.Path, name)
	}
}

func TestSummarizeServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	c := New(transport.New(transport.Config{BaseURL: srv.URL}))
	_, err := c.Summarize(context.Background(), "some text", "", "")
	require.Error(t, err)

	var httpErr *transport.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "HTTP error! status: 500", err.Error())
}

func TestSaveAndGetBodies(t *testing.T) {
	rt := &fakeRequester{}
	c := New(rt)

	_, _ = c.SaveData(context.Background(), "interactions", "int_1", map[string]any{"tool": "prompt"})
	_, _ = c.GetData(context.Background(), "interactions", "int_1")

	assert.Equal(t, "/api/firebase/data/save", rt.calls[0].Endpoint)
	assert.Equal(t, map[string]any{"tool": "prompt"}, rt.calls[0].Body["data"])
	assert.Equal(t, "/api/firebase/data/get", rt.calls[1].Endpoint)
	assert.Equal(t, "int_1", rt.calls[1].Body["document"])
}
