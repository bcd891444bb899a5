package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nyra-ai/nyra/internal/redact"
)

// ChatProvider is the interface for chat completion.
type ChatProvider interface {
	// Name returns the provider name (e.g., "ollama", "openai").
	Name() string

	// Health checks if the chat service is reachable and returns status.
	Health(ctx context.Context) (*HealthResult, error)

	// Chat sends messages and returns the assistant's reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single completion. Zero fields are left to the provider.
type ChatOptions struct {
	Temperature float64
	TopK        int
	MaxTokens   int
}

// HealthResult contains the status of a chat provider.
type HealthResult struct {
	Ok       bool   `json:"ok"`
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model"`
	Error    string `json:"error,omitempty"`
}

// ChatConfig holds chat provider configuration.
type ChatConfig struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	TimeoutSecs int
}

func newHTTPClient(timeoutSecs int) *http.Client {
	c := &http.Client{}
	if timeoutSecs > 0 {
		c.Timeout = time.Duration(timeoutSecs) * time.Second
	}
	return c
}

// System builds a system message.
func System(content string) ChatMessage { return ChatMessage{Role: "system", Content: content} }

// User builds a user message.
func User(content string) ChatMessage { return ChatMessage{Role: "user", Content: content} }

// OllamaChat implements ChatProvider using Ollama's native API.
type OllamaChat struct {
	cfg    ChatConfig
	client *http.Client
}

// NewOllamaChat creates a new Ollama chat provider.
func NewOllamaChat(cfg ChatConfig) *OllamaChat {
	return &OllamaChat{
		cfg:    cfg,
		client: newHTTPClient(cfg.TimeoutSecs),
	}
}

func (o *OllamaChat) Name() string { return "ollama" }

// Model returns the configured model name.
func (o *OllamaChat) Model() string { return o.cfg.Model }

func (o *OllamaChat) Health(ctx context.Context) (*HealthResult, error) {
	result := &HealthResult{
		Provider: "ollama",
		BaseURL:  o.cfg.BaseURL,
		Model:    o.cfg.Model,
	}

	// Ollama answers 200 on its root path when running
	url := strings.TrimRight(o.cfg.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, nil
	}

	resp, err := o.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("failed to connect: %v", err)
		return result, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		result.Ok = true
	} else {
		result.Error = fmt.Sprintf("unexpected status: %d", resp.StatusCode)
	}

	return result, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// HasModel reports whether the configured model is already pulled.
func (o *OllamaChat) HasModel(ctx context.Context) (bool, error) {
	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if matchesModel(m.Name, o.cfg.Model) || matchesModel(m.Model, o.cfg.Model) {
			return true, nil
		}
	}
	return false, nil
}

// matchesModel treats "llama3.2" and "llama3.2:latest" as the same model.
func matchesModel(have, want string) bool {
	if have == want {
		return true
	}
	return strings.TrimSuffix(have, ":latest") == strings.TrimSuffix(want, ":latest")
}

// ollamaChatRequest is the request body for Ollama's /api/chat endpoint.
type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []ChatMessage      `json:"messages"`
	Stream   bool               `json:"stream"`
	Options  *ollamaChatOptions `json:"options,omitempty"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is the response from Ollama's /api/chat endpoint.
type ollamaChatResponse struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func (o *OllamaChat) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error) {
	reqBody := ollamaChatRequest{
		Model:    o.cfg.Model,
		Messages: messages,
		Stream:   false,
	}
	if opts != (ChatOptions{}) {
		reqBody.Options = &ollamaChatOptions{
			Temperature: opts.Temperature,
			TopK:        opts.TopK,
			NumPredict:  opts.MaxTokens,
		}
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/api/chat"
	respBody, err := postJSON(ctx, o.client, url, "", reqBody)
	if err != nil {
		return "", err
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// OpenAIChat implements ChatProvider using OpenAI-compatible API.
type OpenAIChat struct {
	cfg    ChatConfig
	client *http.Client
}

// NewOpenAIChat creates a new OpenAI-compatible chat provider.
func NewOpenAIChat(cfg ChatConfig) *OpenAIChat {
	return &OpenAIChat{
		cfg:    cfg,
		client: newHTTPClient(cfg.TimeoutSecs),
	}
}

func (o *OpenAIChat) Name() string { return "openai" }

func (o *OpenAIChat) Health(ctx context.Context) (*HealthResult, error) {
	result := &HealthResult{
		Provider: "openai",
		BaseURL:  o.cfg.BaseURL,
		Model:    o.cfg.Model,
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create request: %v", err)
		return result, nil
	}

	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("failed to connect: %v", err)
		return result, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		result.Ok = true
	} else {
		body, _ := io.ReadAll(resp.Body)
		result.Error = fmt.Sprintf("status %d: %s", resp.StatusCode, redact.Snippet(body, 100))
	}

	return result, nil
}

// openaiChatRequest is the request body for /v1/chat/completions.
type openaiChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// openaiChatResponse is the response from /v1/chat/completions.
type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAIChat) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error) {
	reqBody := openaiChatRequest{
		Model:       o.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if reqBody.MaxTokens == 0 {
		reqBody.MaxTokens = 1024
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/v1/chat/completions"
	respBody, err := postJSON(ctx, o.client, url, o.cfg.APIKey, reqBody)
	if err != nil {
		return "", err
	}

	var chatResp openaiChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("API returned 0 choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request to %s: %w", redact.URL(url), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Snippet: redact.Snippet(respBody, 200)}
	}
	return respBody, nil
}

// StatusError reports a non-200 answer from a chat backend.
type StatusError struct {
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat backend returned status %d: %s", e.Code, e.Snippet)
}

// EchoChat is a deterministic provider for when no LLM runtime is available.
// It echoes back the last user message with a prefix.
type EchoChat struct{}

// NewEchoChat creates a new echo chat provider.
func NewEchoChat() *EchoChat {
	return &EchoChat{}
}

func (e *EchoChat) Name() string { return "echo" }

func (e *EchoChat) Health(ctx context.Context) (*HealthResult, error) {
	return &HealthResult{
		Ok:       true,
		Provider: "echo",
		BaseURL:  "local",
		Model:    "echo-mock",
	}, nil
}

func (e *EchoChat) Chat(ctx context.Context, messages []ChatMessage, _ ChatOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "Echo: (no messages)", nil
	}

	var lastUserMsg string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			lastUserMsg = messages[i].Content
			break
		}
	}

	if lastUserMsg == "" {
		return "Echo: (no user message found)", nil
	}

	return fmt.Sprintf("Echo: %s", lastUserMsg), nil
}
