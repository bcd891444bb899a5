// Package api is the typed capability client for the NYRA backend. Each method maps one
// logical AI operation onto the transport with a fixed endpoint and body shape.
package api

import (
	"context"
	"errors"

	"github.com/nyra-ai/nyra/internal/transport"
)

// ErrUnknownOperation is returned by Call for names missing from Operations.
var ErrUnknownOperation = errors.New("api: unknown operation")

// Defaults applied when a parameter is left empty.
const (
	DefaultPromptTemperature   = 0.7
	DefaultPromptMaxTokens     = 500
	DefaultGenerateTemperature = 0.7
	DefaultGenerateMaxTokens   = 2048
	DefaultSummaryType         = "tldr"
	DefaultSummaryLength       = "medium"
	DefaultSourceLanguage      = "auto"
	DefaultWriterTone          = "professional"
	DefaultContentType         = "general"
	DefaultRewriteGoal         = "improve"
	DefaultRewriteTone         = "neutral"
)

// DefaultAgents is the agent pipeline used by MultiAgent when none is given.
var DefaultAgents = []string{"analyst", "writer", "reviewer"}

// GenerationOptions tunes prompt-style calls. Zero values take the operation defaults.
type GenerationOptions struct {
	Temperature *float64
	MaxTokens   int
}

// ProofreadChecks toggles individual proofreading passes. A nil field means enabled.
type ProofreadChecks struct {
	Grammar  *bool
	Spelling *bool
	Style    *bool
}

// Client exposes one method per backend capability. It holds no mutable state.
type Client struct {
	rt transport.Requester
}

// New creates a capability client over rt.
func New(rt transport.Requester) *Client {
	return &Client{rt: rt}
}

// Call dispatches a registered operation with a caller-built body.
func (c *Client) Call(ctx context.Context, op string, body any) (transport.Envelope, error) {
	ep, err := lookup(op)
	if err != nil {
		return nil, err
	}
	if ep.Method == transport.MethodGet {
		body = nil
	}
	return c.rt.Request(ctx, ep.Path, ep.Method, body)
}

func (c *Client) do(ctx context.Context, op string, body any) (transport.Envelope, error) {
	ep := Operations[op]
	return c.rt.Request(ctx, ep.Path, ep.Method, body)
}

// Prompt requests on-device style text generation from the backend.
func (c *Client) Prompt(ctx context.Context, prompt string, opts GenerationOptions) (transport.Envelope, error) {
	return c.do(ctx, OpPrompt, map[string]any{
		"prompt":      prompt,
		"temperature": temperatureOr(opts.Temperature, DefaultPromptTemperature),
		"max_tokens":  intOr(opts.MaxTokens, DefaultPromptMaxTokens),
	})
}

// Summarize condenses text. summaryType is tldr, key-points, teaser or headline.
func (c *Client) Summarize(ctx context.Context, text, summaryType, length string) (transport.Envelope, error) {
	return c.do(ctx, OpSummarize, map[string]any{
		"text":   text,
		"type":   stringOr(summaryType, DefaultSummaryType),
		"length": stringOr(length, DefaultSummaryLength),
	})
}

// Translate converts text into targetLanguage.
func (c *Client) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string) (transport.Envelope, error) {
	return c.do(ctx, OpTranslate, map[string]any{
		"text":            text,
		"target_language": targetLanguage,
		"source_language": stringOr(sourceLanguage, DefaultSourceLanguage),
	})
}

// Write drafts new content from a context description.
func (c *Client) Write(ctx context.Context, writingContext, tone, contentType string) (transport.Envelope, error) {
	return c.do(ctx, OpWrite, map[string]any{
		"context":      writingContext,
		"tone":         stringOr(tone, DefaultWriterTone),
		"content_type": stringOr(contentType, DefaultContentType),
	})
}

// Proofread checks grammar, spelling and style.
func (c *Client) Proofread(ctx context.Context, text string, checks ProofreadChecks) (transport.Envelope, error) {
	return c.do(ctx, OpProofread, map[string]any{
		"text":           text,
		"check_grammar":  enabled(checks.Grammar),
		"check_spelling": enabled(checks.Spelling),
		"check_style":    enabled(checks.Style),
	})
}

// Rewrite rephrases text towards goal (improve, simplify, formalize, shorten).
func (c *Client) Rewrite(ctx context.Context, text, goal, tone string) (transport.Envelope, error) {
	return c.do(ctx, OpRewrite, map[string]any{
		"text": text,
		"goal": stringOr(goal, DefaultRewriteGoal),
		"tone": stringOr(tone, DefaultRewriteTone),
	})
}

// Generate runs cloud text generation.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerationOptions) (transport.Envelope, error) {
	return c.do(ctx, OpGenerate, map[string]any{
		"prompt":      prompt,
		"temperature": temperatureOr(opts.Temperature, DefaultGenerateTemperature),
		"max_tokens":  intOr(opts.MaxTokens, DefaultGenerateMaxTokens),
	})
}

// AnalyzeDevOps reviews a configuration file of the given type (dockerfile, kubernetes, terraform, ...).
func (c *Client) AnalyzeDevOps(ctx context.Context, code, configType string) (transport.Envelope, error) {
	return c.do(ctx, OpAnalyzeDevOps, map[string]any{
		"code": code,
		"type": configType,
	})
}

// MultiAgent runs task through an ordered agent pipeline.
func (c *Client) MultiAgent(ctx context.Context, task string, agents []string) (transport.Envelope, error) {
	if len(agents) == 0 {
		agents = append([]string(nil), DefaultAgents...)
	}
	return c.do(ctx, OpMultiAgent, map[string]any{
		"task":   task,
		"agents": agents,
	})
}

// OptimizeSQL asks for SQL structure analysis and suggestions.
func (c *Client) OptimizeSQL(ctx context.Context, query string) (transport.Envelope, error) {
	return c.do(ctx, OpOptimizeSQL, map[string]any{"query": query})
}

// Analytics fetches dashboard analytics.
func (c *Client) Analytics(ctx context.Context) (transport.Envelope, error) {
	return c.do(ctx, OpAnalytics, nil)
}

// SaveData stores data under collection/document.
func (c *Client) SaveData(ctx context.Context, collection, document string, data any) (transport.Envelope, error) {
	return c.do(ctx, OpSaveData, map[string]any{
		"collection": collection,
		"document":   document,
		"data":       data,
	})
}

// GetData loads collection/document.
func (c *Client) GetData(ctx context.Context, collection, document string) (transport.Envelope, error) {
	return c.do(ctx, OpGetData, map[string]any{
		"collection": collection,
		"document":   document,
	})
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (transport.Envelope, error) {
	return c.do(ctx, OpHealth, nil)
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func temperatureOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func enabled(b *bool) bool {
	return b == nil || *b
}
