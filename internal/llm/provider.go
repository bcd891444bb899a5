// Package llm provides pluggable chat completion backends (Ollama, OpenAI-compatible,
// echo) used by the on-device runtime and the development server.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	nlog "github.com/nyra-ai/nyra/internal/log"
)

var ErrNoChatProvider = errors.New("no chat provider available")

// NewChatFromEnv creates a ChatProvider from environment variables.
// Environment variables:
//   - NYRA_CHAT_PROVIDER: "ollama", "openai" or "echo" (default)
//   - NYRA_CHAT_BASE_URL: base URL (default: http://localhost:11434 for Ollama)
//   - NYRA_CHAT_MODEL: model name (default: "llama3.2" for Ollama)
//   - NYRA_CHAT_API_KEY: API key (optional, for OpenAI-compatible providers)
//   - NYRA_CHAT_TIMEOUT_SECONDS: request timeout (default: 60)
func NewChatFromEnv() (ChatProvider, error) {
	provider := envOrDefault("NYRA_CHAT_PROVIDER", "echo")

	cfg := ChatConfig{
		Provider:    provider,
		APIKey:      os.Getenv("NYRA_CHAT_API_KEY"),
		TimeoutSecs: envIntOrDefault("NYRA_CHAT_TIMEOUT_SECONDS", 60),
	}
	return NewChat(cfg)
}

// NewChat creates the provider named by cfg.Provider, filling URL and model defaults.
func NewChat(cfg ChatConfig) (ChatProvider, error) {
	switch cfg.Provider {
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = envOrDefault("NYRA_CHAT_BASE_URL", "http://localhost:11434")
		}
		if cfg.Model == "" {
			cfg.Model = envOrDefault("NYRA_CHAT_MODEL", "llama3.2")
		}
		return NewOllamaChat(cfg), nil

	case "openai":
		if cfg.BaseURL == "" {
			cfg.BaseURL = envOrDefault("NYRA_CHAT_BASE_URL", "http://localhost:1234") // LM Studio default
		}
		if cfg.Model == "" {
			cfg.Model = os.Getenv("NYRA_CHAT_MODEL")
		}
		return NewOpenAIChat(cfg), nil

	case "echo", "mock", "":
		return NewEchoChat(), nil

	default:
		return nil, fmt.Errorf("unknown chat provider: %s (valid: ollama, openai, echo)", cfg.Provider)
	}
}

// FallbackChat routes chat to a primary provider and falls back to a secondary one
// when the primary fails.
type FallbackChat struct {
	primary  ChatProvider
	fallback ChatProvider
}

// NewFallbackChat wraps primary with fallback. Either may be nil.
func NewFallbackChat(primary, fallback ChatProvider) *FallbackChat {
	return &FallbackChat{primary: primary, fallback: fallback}
}

// Name returns the provider name.
func (f *FallbackChat) Name() string {
	return "fallback_router"
}

// Health reports the primary when it is healthy, else the fallback.
func (f *FallbackChat) Health(ctx context.Context) (*HealthResult, error) {
	if f.primary != nil {
		result, err := f.primary.Health(ctx)
		if err == nil && result.Ok {
			return result, nil
		}
	}
	if f.fallback != nil {
		return f.fallback.Health(ctx)
	}
	return &HealthResult{
		Ok:       false,
		Provider: "fallback_router",
		Error:    "no primary chat provider available and no fallback configured",
	}, nil
}

// Chat tries the primary, then the fallback.
func (f *FallbackChat) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error) {
	reply, _, err := f.ChatServed(ctx, messages, opts)
	return reply, err
}

// ChatServed is Chat that also names the provider that produced the reply.
func (f *FallbackChat) ChatServed(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, string, error) {
	if f.primary != nil {
		reply, err := f.primary.Chat(ctx, messages, opts)
		if err == nil {
			return reply, f.primary.Name(), nil
		}
		logger := nlog.WithComponent("llm")
		logger.Warn().Err(err).
			Str("provider", f.primary.Name()).
			Msg("primary chat provider failed, using fallback")
	}
	if f.fallback != nil {
		reply, err := f.fallback.Chat(ctx, messages, opts)
		if err != nil {
			return "", f.fallback.Name(), err
		}
		return reply, f.fallback.Name(), nil
	}
	return "", "", ErrNoChatProvider
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
