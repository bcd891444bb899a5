package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/llm"
	"github.com/nyra-ai/nyra/internal/store"
	"github.com/nyra-ai/nyra/internal/transport"
)

type failingChat struct{}

func (failingChat) Name() string { return "broken" }

func (failingChat) Health(context.Context) (*llm.HealthResult, error) {
	return &llm.HealthResult{Ok: false, Provider: "broken"}, nil
}

func (failingChat) Chat(context.Context, []llm.ChatMessage, llm.ChatOptions) (string, error) {
	return "", errors.New("model offline")
}

// scriptedChat records prompts and replies with a fixed text.
type scriptedChat struct {
	reply   string
	prompts []string
}

func (c *scriptedChat) Name() string { return "scripted" }

func (c *scriptedChat) Health(context.Context) (*llm.HealthResult, error) {
	return &llm.HealthResult{Ok: true, Provider: "scripted"}, nil
}

func (c *scriptedChat) Chat(_ context.Context, msgs []llm.ChatMessage, _ llm.ChatOptions) (string, error) {
	c.prompts = append(c.prompts, msgs[len(msgs)-1].Content)
	return c.reply, nil
}

func newTestServer(t *testing.T, chat llm.ChatProvider) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "backend.db"), store.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := New(Config{Chat: chat, Store: st, Version: "test"})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (int, gjson.Result) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, readJSON(t, resp)
}

func get(t *testing.T, ts *httptest.Server, path string) (int, gjson.Result) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, readJSON(t, resp)
}

func readJSON(t *testing.T, resp *http.Response) gjson.Result {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(data), "invalid JSON: %s", data)
	return gjson.ParseBytes(data)
}

func TestEveryOperationIsRouted(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	for _, name := range api.OperationNames() {
		ep := api.Operations[name]
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(string(ep.Method), ts.URL+ep.Path, strings.NewReader("{}"))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
			assert.NotEqual(t, http.StatusMethodNotAllowed, resp.StatusCode)
		})
	}
}

func TestPromptResponseShape(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	status, body := post(t, ts, "/api/chrome-ai/prompt", `{"prompt":"hello there"}`)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "chrome_ai_prompt", body.Get("type").String())
	assert.Equal(t, "hello there", body.Get("config.prompt").String())
	assert.Equal(t, 0.7, body.Get("config.temperature").Float())
	assert.EqualValues(t, 500, body.Get("config.max_tokens").Int())
	assert.True(t, body.Get("config.use_nano").Bool())
	assert.Equal(t, "echo", body.Get("metadata.provider").String())
	assert.Equal(t, "Echo: hello there", body.Get("result").String())
}

func TestMissingFieldIsBadRequest(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	tests := []struct {
		path string
		body string
		want string
	}{
		{"/api/chrome-ai/prompt", `{}`, "Prompt is required"},
		{"/api/chrome-ai/translate", `{"text":"bonjour"}`, "Text and target_language are required"},
		{"/api/gemini/analyze-devops", `{"code":"FROM alpine"}`, "Code and type are required"},
		{"/api/bigquery/optimize", `{}`, "SQL query is required"},
		{"/api/firebase/data/save", `{"collection":"c"}`, "Collection and document are required"},
		{"/api/chrome-ai/summarize", `not json`, "Invalid JSON"},
		{"/api/chrome-ai/summarize", `[1,2]`, "Invalid JSON"},
	}
	for _, tt := range tests {
		status, body := post(t, ts, tt.path, tt.body)
		assert.Equal(t, http.StatusBadRequest, status, tt.path)
		assert.Equal(t, tt.want, body.Get("error").String(), tt.path)
	}
}

func TestGenerationFailureIs500(t *testing.T) {
	ts := newTestServer(t, failingChat{})

	status, body := post(t, ts, "/api/chrome-ai/summarize", `{"text":"long text"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Summarization failed", body.Get("error").String())
	assert.Equal(t, "model offline", body.Get("details").String())
}

func TestFallbackChatServesReply(t *testing.T) {
	ts := newTestServer(t, llm.NewFallbackChat(failingChat{}, llm.NewEchoChat()))

	status, body := post(t, ts, "/api/gemini/generate", `{"prompt":"hi"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Echo: hi", body.Get("generated_text").String())
	assert.Equal(t, "echo", body.Get("model").String())
	assert.Equal(t, "cloud", body.Get("processing").String())
}

func TestMultiAgentSequential(t *testing.T) {
	chat := &scriptedChat{reply: "we should add caching"}
	ts := newTestServer(t, chat)

	status, body := post(t, ts, "/api/gemini/multi-agent", `{"task":"plan a launch","agents":["analyst","reviewer"]}`)
	require.Equal(t, http.StatusOK, status)

	assert.EqualValues(t, 2, body.Get("metadata.agents_used").Int())
	assert.Equal(t, "reviewer", body.Get("agent_responses.1.agent").String())
	assert.Equal(t, "we should add caching", body.Get("synthesized_result").String())

	require.Len(t, chat.prompts, 3)
	assert.Contains(t, chat.prompts[0], "specialized analyst agent")
	assert.Contains(t, chat.prompts[2], "ANALYST: we should add caching...")
}

func TestAnalyzeDevOps(t *testing.T) {
	chat := &scriptedChat{reply: "Overview\nYou should enable encryption at rest.\nConsider caching layers.\nMinor nits."}
	ts := newTestServer(t, chat)

	status, body := post(t, ts, "/api/gemini/analyze-devops", `{"code":"a\nb","type":"terraform"}`)
	require.Equal(t, http.StatusOK, status)

	recs := body.Get("recommendations").Array()
	require.Len(t, recs, 2)
	assert.Equal(t, "security", recs[0].Get("category").String())
	assert.EqualValues(t, 2, recs[0].Get("line_number").Int())
	assert.EqualValues(t, 87, body.Get("estimated_improvements.security_score").Int())
	assert.EqualValues(t, 1, body.Get("severity_levels.low").Int())
	assert.EqualValues(t, 2, body.Get("metadata.lines_analyzed").Int())
}

func TestOptimizeSQL(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	status, body := post(t, ts, "/api/bigquery/optimize", `{"query":"SELECT a FROM t ORDER BY a"}`)
	require.Equal(t, http.StatusOK, status)

	assert.False(t, body.Get("analysis.has_where").Bool())
	assert.Equal(t, "large", body.Get("analysis.estimated_scan_size").String())
	assert.Equal(t, "low", body.Get("metadata.complexity").String())
	assert.Equal(t, "SELECT a FROM t ORDER BY a\nLIMIT 1000", body.Get("optimized_query").String())

	var types []string
	for _, s := range body.Get("suggestions").Array() {
		types = append(types, s.Get("type").String())
	}
	assert.Equal(t, []string{"filtering", "limiting"}, types)
}

func TestAnalyzeQueryComplexity(t *testing.T) {
	q := "select * from a join b on a.id=b.id join c on c.id=a.id join d on d.id=a.id where x=1"
	a := AnalyzeQuery(q)
	assert.Equal(t, "high", a.Complexity)
	assert.True(t, a.HasJoin)
	assert.Empty(t, Suggest(q, a))
}

func TestSaveGetAnalyticsThroughClient(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())
	client := api.New(transport.New(transport.Config{BaseURL: ts.URL}))
	ctx := context.Background()

	_, err := client.SaveData(ctx, "interactions", "int_1", map[string]any{
		"tool":               "prompt",
		"success":            true,
		"processing_time_ms": 120,
		"timestamp":          time.Now().UTC().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)

	env, err := client.GetData(ctx, "interactions", "int_1")
	require.NoError(t, err)
	assert.Equal(t, "prompt", gjson.GetBytes(env, "data.tool").String())

	env, err = client.Analytics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gjson.GetBytes(env, "data.0.interactions").Int())
	assert.EqualValues(t, 1, gjson.GetBytes(env, "data.0.successful_operations").Int())

	_, err = client.GetData(ctx, "interactions", "missing")
	var httpErr *transport.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestSaveRejectsNonObjectData(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	status, _ := post(t, ts, "/api/firebase/data/save", `{"collection":"c","document":"d","data":[1]}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndStatus(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	status, body := get(t, ts, "/health")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body.Get("status").String())
	assert.Equal(t, "test", body.Get("version").String())
	assert.Equal(t, "available", body.Get("services.chat").String())
	assert.Equal(t, "connected", body.Get("services.store").String())

	status, body = get(t, ts, "/api/status")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/api/chrome-ai/translate", body.Get("apis.translate.endpoint").String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	status, body := get(t, ts, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body.Get("error").String())

	status, body = get(t, ts, "/api/chrome-ai/prompt")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "Method not allowed", body.Get("error").String())
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestRateLimit(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "backend.db"), store.DefaultConfig())
	require.NoError(t, err)
	defer st.Close()

	srv := New(Config{Chat: llm.NewEchoChat(), Store: st, RateLimit: 2, RateWindow: time.Minute})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for i := 0; i < 2; i++ {
		status, _ := post(t, ts, "/api/bigquery/optimize", `{"query":"SELECT 1"}`)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := post(t, ts, "/api/bigquery/optimize", `{"query":"SELECT 1"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Rate limit exceeded", body.Get("error").String())

	status, _ = get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, llm.NewEchoChat())

	_, _ = get(t, ts, "/health")
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nyra_backend_requests_total")
}
