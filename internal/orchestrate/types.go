// Package orchestrate coordinates the per-tool flow: validate input, pick the
// on-device or network path, render the result and record the interaction.
package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/nyra-ai/nyra/internal/api"
	"github.com/nyra-ai/nyra/internal/ondevice"
	"github.com/nyra-ai/nyra/internal/transport"
)

// Tool names a user-facing AI tool.
type Tool string

const (
	ToolPrompt      Tool = "prompt"
	ToolSummarizer  Tool = "summarizer"
	ToolTranslator  Tool = "translator"
	ToolWriter      Tool = "writer"
	ToolProofreader Tool = "proofreader"
	ToolRewriter    Tool = "rewriter"
)

// Tools lists every tool in display order.
var Tools = []Tool{ToolPrompt, ToolSummarizer, ToolTranslator, ToolWriter, ToolProofreader, ToolRewriter}

// Status tags the outcome of an interaction.
type Status string

const (
	StatusNano    Status = "nano"
	StatusPro     Status = "pro"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Processing locations.
const (
	ProcessingOnDevice = "on-device"
	ProcessingCloud    = "cloud"
)

// Interaction is recorded once per executed tool invocation.
type Interaction struct {
	ID         string    `json:"id"`
	Tool       Tool      `json:"tool"`
	Status     Status    `json:"status"`
	Success    bool      `json:"success"`
	Processing string    `json:"processing,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"processing_time_ms"`
	Error      string    `json:"error,omitempty"`
	ClientID   string    `json:"client_id,omitempty"`
}

// Result is what a tool produced.
type Result struct {
	Text       string
	Status     Status
	Processing string
	Raw        transport.Envelope
	Duration   time.Duration
}

// Display is the surface results and errors are rendered to.
type Display interface {
	ShowLoading(tool Tool, message string)
	ShowResult(tool Tool, result Result)
	ShowError(tool Tool, message string)
}

// Recorder receives one Interaction per executed invocation.
type Recorder interface {
	Record(ctx context.Context, rec Interaction) error
}

// Cloud is the network capability surface used by the handlers.
type Cloud interface {
	Prompt(ctx context.Context, prompt string, opts api.GenerationOptions) (transport.Envelope, error)
	Summarize(ctx context.Context, text, summaryType, length string) (transport.Envelope, error)
	Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (transport.Envelope, error)
	Write(ctx context.Context, writingContext, tone, contentType string) (transport.Envelope, error)
	Proofread(ctx context.Context, text string, checks api.ProofreadChecks) (transport.Envelope, error)
	Rewrite(ctx context.Context, text, goal, tone string) (transport.Envelope, error)
}

// Device is the on-device surface used by the handlers.
type Device interface {
	Available() bool
	GenerateText(ctx context.Context, prompt string, opts ondevice.GenerateOptions) (string, error)
	Summarize(ctx context.Context, text string, opts ondevice.SummarizeOptions) (string, error)
	Translate(ctx context.Context, text, targetLanguage string, opts ondevice.TranslateOptions) (string, error)
}

// ValidationError is returned for blank input. No call is made and nothing is recorded.
type ValidationError struct {
	Tool    Tool
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

var validationMessages = map[Tool]string{
	ToolPrompt:      "Please enter a prompt",
	ToolSummarizer:  "Please enter text to summarize",
	ToolTranslator:  "Please enter text to translate",
	ToolWriter:      "Please enter a writing context",
	ToolProofreader: "Please enter text to proofread",
	ToolRewriter:    "Please enter text to rewrite",
}

var loadingMessages = map[Tool]string{
	ToolPrompt:      "Generating...",
	ToolSummarizer:  "Summarizing...",
	ToolTranslator:  "Translating...",
	ToolWriter:      "Writing...",
	ToolProofreader: "Checking...",
	ToolRewriter:    "Rewriting...",
}

// LoadingMessage returns the progress text shown while tool runs.
func LoadingMessage(tool Tool) string {
	if msg, ok := loadingMessages[tool]; ok {
		return msg
	}
	return "Working..."
}
