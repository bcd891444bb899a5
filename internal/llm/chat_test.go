package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaChatSendsOptions(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hello there"},"done":true}`))
	}))
	defer srv.Close()

	chat := NewOllamaChat(ChatConfig{BaseURL: srv.URL, Model: "llama3.2"})
	reply, err := chat.Chat(context.Background(), []ChatMessage{User("hi")}, ChatOptions{Temperature: 0.7, TopK: 40})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "llama3.2", got.Model)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 40, got.Options.TopK)
	assert.Equal(t, 0.7, got.Options.Temperature)
}

func TestOllamaChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	chat := NewOllamaChat(ChatConfig{BaseURL: srv.URL, Model: "missing"})
	_, err := chat.Chat(context.Background(), []ChatMessage{User("hi")}, ChatOptions{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestOllamaHasModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest","model":"llama3.2:latest"}]}`))
	}))
	defer srv.Close()

	present, err := NewOllamaChat(ChatConfig{BaseURL: srv.URL, Model: "llama3.2"}).HasModel(context.Background())
	require.NoError(t, err)
	assert.True(t, present)

	present, err = NewOllamaChat(ChatConfig{BaseURL: srv.URL, Model: "mistral"}).HasModel(context.Background())
	require.NoError(t, err)
	assert.False(t, present)
}

func TestOllamaHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result, err := NewOllamaChat(ChatConfig{BaseURL: url}).Health(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Ok)
	assert.Contains(t, result.Error, "failed to connect")
}

func TestOpenAIChatSendsCompletionRequest(t *testing.T) {
	var got openaiChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi back"}}]}`))
	}))
	defer srv.Close()

	chat := NewOpenAIChat(ChatConfig{BaseURL: srv.URL + "/", Model: "gpt-4o-mini", APIKey: "sk-test"})
	reply, err := chat.Chat(context.Background(), []ChatMessage{User("hi")}, ChatOptions{Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "hi back", reply)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 1024, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestOpenAIChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewOpenAIChat(ChatConfig{BaseURL: srv.URL}).Chat(context.Background(), []ChatMessage{User("hi")}, ChatOptions{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, statusErr.Snippet, "invalid api key")
}

func TestOpenAIChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIChat(ChatConfig{BaseURL: srv.URL}).Chat(context.Background(), []ChatMessage{User("hi")}, ChatOptions{MaxTokens: 64})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 choices")
}

func TestOpenAIHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	result, err := NewOpenAIChat(ChatConfig{BaseURL: srv.URL, Model: "gpt-4o-mini"}).Health(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Equal(t, "openai", result.Provider)
}

func TestEchoChat(t *testing.T) {
	e := NewEchoChat()
	reply, err := e.Chat(context.Background(), []ChatMessage{System("be brief"), User("ping")}, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Echo: ping", reply)

	reply, err = e.Chat(context.Background(), nil, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Echo: (no messages)", reply)
}

type failingChat struct{ calls int }

func (f *failingChat) Name() string { return "failing" }
func (f *failingChat) Health(context.Context) (*HealthResult, error) {
	return &HealthResult{Provider: "failing"}, nil
}
func (f *failingChat) Chat(context.Context, []ChatMessage, ChatOptions) (string, error) {
	f.calls++
	return "", errors.New("offline")
}

func TestFallbackChat(t *testing.T) {
	primary := &failingChat{}
	fc := NewFallbackChat(primary, NewEchoChat())

	reply, served, err := fc.ChatServed(context.Background(), []ChatMessage{User("x")}, ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Echo: x", reply)
	assert.Equal(t, "echo", served)
	assert.Equal(t, 1, primary.calls)

	health, err := fc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "echo", health.Provider)
}

func TestFallbackChatNoProviders(t *testing.T) {
	_, err := NewFallbackChat(nil, nil).Chat(context.Background(), nil, ChatOptions{})
	assert.ErrorIs(t, err, ErrNoChatProvider)
}

func TestNewChat(t *testing.T) {
	p, err := NewChat(ChatConfig{Provider: "ollama", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	p, err = NewChat(ChatConfig{})
	require.NoError(t, err)
	assert.Equal(t, "echo", p.Name())

	_, err = NewChat(ChatConfig{Provider: "bogus"})
	assert.Error(t, err)
}
