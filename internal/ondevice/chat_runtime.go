package ondevice

import (
	"context"
	"fmt"

	"github.com/nyra-ai/nyra/internal/llm"
)

// modelChecker is implemented by providers that can tell whether their model is pulled.
type modelChecker interface {
	HasModel(ctx context.Context) (bool, error)
}

// ChatRuntime hosts on-device sessions on a local chat provider.
type ChatRuntime struct {
	provider llm.ChatProvider
}

// NewChatRuntime wraps provider as an on-device runtime.
func NewChatRuntime(provider llm.ChatProvider) *ChatRuntime {
	return &ChatRuntime{provider: provider}
}

// NewOllama returns a runtime backed by a local Ollama server.
func NewOllama(baseURL, model string, timeoutSecs int) *ChatRuntime {
	return NewChatRuntime(llm.NewOllamaChat(llm.ChatConfig{
		Provider:    "ollama",
		BaseURL:     baseURL,
		Model:       model,
		TimeoutSecs: timeoutSecs,
	}))
}

// NewEcho returns a deterministic in-process runtime.
func NewEcho() *ChatRuntime {
	return NewChatRuntime(llm.NewEchoChat())
}

func (r *ChatRuntime) Name() string { return r.provider.Name() }

func (r *ChatRuntime) TextReadiness(ctx context.Context) (Readiness, error) {
	health, err := r.provider.Health(ctx)
	if err != nil {
		return No, err
	}
	if !health.Ok {
		return No, nil
	}
	if mc, ok := r.provider.(modelChecker); ok {
		present, err := mc.HasModel(ctx)
		if err != nil {
			return No, err
		}
		if !present {
			return AfterDownload, nil
		}
	}
	return Readily, nil
}

func (r *ChatRuntime) NewTextSession(ctx context.Context, opts GenerateOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &chatSession{
		provider: r.provider,
		opts:     llm.ChatOptions{Temperature: opts.Temperature, TopK: opts.TopK},
	}, nil
}

func (r *ChatRuntime) NewSummarizer(ctx context.Context, opts SummarizeOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &chatSession{
		provider: r.provider,
		system:   summarizerInstruction(opts.Type, opts.Length),
	}, nil
}

func (r *ChatRuntime) NewTranslator(ctx context.Context, targetLanguage string, opts TranslateOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &chatSession{
		provider: r.provider,
		system:   translatorInstruction(opts.SourceLanguage, targetLanguage),
	}, nil
}

func summarizerInstruction(kind, length string) string {
	var style string
	switch kind {
	case "key-points":
		style = "Summarize the following text as a bulleted list of key points."
	case "teaser":
		style = "Write a short teaser for the following text that makes the reader want to read it."
	case "headline":
		style = "Write a single headline for the following text."
	default:
		style = "Summarize the following text as a TL;DR."
	}
	return fmt.Sprintf("%s Keep the result %s in length. Reply with the summary only.", style, length)
}

func translatorInstruction(source, target string) string {
	if source == "" || source == DefaultSourceLanguage {
		return fmt.Sprintf("Detect the language of the following text and translate it to %s. Reply with the translation only.", target)
	}
	return fmt.Sprintf("Translate the following text from %s to %s. Reply with the translation only.", source, target)
}

type chatSession struct {
	provider llm.ChatProvider
	system   string
	opts     llm.ChatOptions
}

func (s *chatSession) Run(ctx context.Context, input string) (string, error) {
	messages := make([]llm.ChatMessage, 0, 2)
	if s.system != "" {
		messages = append(messages, llm.System(s.system))
	}
	messages = append(messages, llm.User(input))
	return s.provider.Chat(ctx, messages, s.opts)
}

func (s *chatSession) Destroy() error { return nil }
