package orchestrate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nyra-ai/nyra/internal/api"
	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/ondevice"
	"github.com/nyra-ai/nyra/internal/transport"
)

// Deps wires a Handlers value. Cloud is required; the rest may be nil.
type Deps struct {
	Cloud    Cloud
	Device   Device
	Display  Display
	Recorder Recorder
	ClientID string
	Now      func() time.Time
}

// Handlers runs the six AI tools. It holds no mutable state and may be shared.
type Handlers struct {
	cloud    Cloud
	device   Device
	display  Display
	recorder Recorder
	clientID string
	now      func() time.Time
	logger   zerolog.Logger
}

// New builds Handlers from deps.
func New(deps Deps) *Handlers {
	h := &Handlers{
		cloud:    deps.Cloud,
		device:   deps.Device,
		display:  deps.Display,
		recorder: deps.Recorder,
		clientID: deps.ClientID,
		now:      deps.Now,
		logger:   nlog.WithComponent("orchestrate"),
	}
	if h.display == nil {
		h.display = NopDisplay{}
	}
	if h.recorder == nil {
		h.recorder = NopRecorder{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// PromptInput is the prompt tool's input.
type PromptInput struct {
	Prompt      string
	Temperature *float64
	MaxTokens   int
}

// SummarizeInput is the summarizer tool's input.
type SummarizeInput struct {
	Text   string
	Type   string
	Length string
}

// TranslateInput is the translator tool's input.
type TranslateInput struct {
	Text   string
	Target string
	Source string
}

// WriteInput is the writer tool's input.
type WriteInput struct {
	Context     string
	Tone        string
	ContentType string
}

// ProofreadInput is the proofreader tool's input.
type ProofreadInput struct {
	Text   string
	Checks api.ProofreadChecks
}

// RewriteInput is the rewriter tool's input.
type RewriteInput struct {
	Text string
	Goal string
	Tone string
}

// Prompt generates text on-device when possible. An on-device failure falls back
// to the cloud capability.
func (h *Handlers) Prompt(ctx context.Context, in PromptInput) (Result, error) {
	if err := h.validate(ToolPrompt, in.Prompt); err != nil {
		return Result{}, err
	}
	return h.execute(ctx, ToolPrompt, func(ctx context.Context) (Result, error) {
		if h.deviceAvailable() {
			opts := ondevice.GenerateOptions{}
			if in.Temperature != nil {
				opts.Temperature = *in.Temperature
			}
			text, err := h.device.GenerateText(ctx, in.Prompt, opts)
			if err == nil {
				return deviceResult(text, StatusNano), nil
			}
			h.logger.Warn().Err(err).Str(nlog.FieldTool, string(ToolPrompt)).
				Msg("on-device generation failed, falling back to cloud")
		}
		env, err := h.cloud.Prompt(ctx, in.Prompt, api.GenerationOptions{
			Temperature: in.Temperature,
			MaxTokens:   in.MaxTokens,
		})
		if err != nil {
			return Result{}, err
		}
		return cloudResult(env, StatusPro), nil
	})
}

// Summarize condenses text. When the on-device path is chosen its failure is final.
func (h *Handlers) Summarize(ctx context.Context, in SummarizeInput) (Result, error) {
	if err := h.validate(ToolSummarizer, in.Text); err != nil {
		return Result{}, err
	}
	return h.execute(ctx, ToolSummarizer, func(ctx context.Context) (Result, error) {
		if h.deviceAvailable() {
			text, err := h.device.Summarize(ctx, in.Text, ondevice.SummarizeOptions{Type: in.Type, Length: in.Length})
			if err != nil {
				return Result{}, err
			}
			return deviceResult(text, StatusSuccess), nil
		}
		env, err := h.cloud.Summarize(ctx, in.Text, in.Type, in.Length)
		if err != nil {
			return Result{}, err
		}
		return cloudResult(env, StatusSuccess), nil
	})
}

// Translate converts text into in.Target. When the on-device path is chosen its failure is final.
func (h *Handlers) Translate(ctx context.Context, in TranslateInput) (Result, error) {
	if err := h.validate(ToolTranslator, in.Text); err != nil {
		return Result{}, err
	}
	return h.execute(ctx, ToolTranslator, func(ctx context.Context) (Result, error) {
		if h.deviceAvailable() {
			text, err := h.device.Translate(ctx, in.Text, in.Target, ondevice.TranslateOptions{SourceLanguage: in.Source})
			if err != nil {
				return Result{}, err
			}
			return deviceResult(text, StatusSuccess), nil
		}
		env, err := h.cloud.Translate(ctx, in.Text, in.Target, in.Source)
		if err != nil {
			return Result{}, err
		}
		return cloudResult(env, StatusSuccess), nil
	})
}

// Write drafts content from a context description.
func (h *Handlers) Write(ctx context.Context, in WriteInput) (Result, error) {
	if err := h.validate(ToolWriter, in.Context); err != nil {
		return Result{}, err
	}
	return h.execute(ctx, ToolWriter, func(ctx context.Context) (Result, error) {
		env, err := h.cloud.Write(ctx, in.Context, in.Tone, in.ContentType)
		if err != nil {
			return Result{}, err
		}
		return cloudResult(env, StatusSuccess), nil
	})
}

// Proofread checks grammar, spelling and style.
func (h *Handlers) Proofread(ctx context.Context, in ProofreadInput) (Result, error) {
	if err := h.validate(ToolProofreader, in.Text); err != nil {
		return Result{}, err
	}
	return h.execute(ctx, ToolProofreader, func(ctx context.Context) (Result, error) {
		env, err := h.cloud.Proofread(ctx, in.Text, in.Checks)
		if err != nil {
			return Result{}, err
		}
		return cloudResult(env, StatusSuccess), nil
	})
}

// Rewrite rephrases text towards a goal.
func (h *Handlers) Rewrite(ctx context.Context, in RewriteInput) (Result, error) {
	if err := h.validate(ToolRewriter, in.Text); err != nil {
		return Result{}, err
	}
	return h.execute(ctx, ToolRewriter, func(ctx context.Context) (Result, error) {
		env, err := h.cloud.Rewrite(ctx, in.Text, in.Goal, in.Tone)
		if err != nil {
			return Result{}, err
		}
		return cloudResult(env, StatusSuccess), nil
	})
}

func (h *Handlers) deviceAvailable() bool {
	return h.device != nil && h.device.Available()
}

func (h *Handlers) validate(tool Tool, input string) error {
	if strings.TrimSpace(input) != "" {
		return nil
	}
	err := &ValidationError{Tool: tool, Message: validationMessages[tool]}
	h.display.ShowError(tool, err.Message)
	return err
}

func (h *Handlers) execute(ctx context.Context, tool Tool, run func(context.Context) (Result, error)) (Result, error) {
	h.display.ShowLoading(tool, LoadingMessage(tool))

	start := h.now()
	res, err := run(ctx)
	elapsed := h.now().Sub(start)

	rec := Interaction{
		ID:         uuid.NewString(),
		Tool:       tool,
		Timestamp:  start.UTC(),
		DurationMs: elapsed.Milliseconds(),
		ClientID:   h.clientID,
	}

	if err != nil {
		rec.Status = StatusError
		rec.Error = err.Error()
		h.display.ShowError(tool, "Error: "+err.Error())
		h.record(ctx, rec)
		return Result{}, err
	}

	res.Duration = elapsed
	rec.Status = res.Status
	rec.Success = true
	rec.Processing = res.Processing
	h.display.ShowResult(tool, res)
	h.record(ctx, rec)
	return res, nil
}

func (h *Handlers) record(ctx context.Context, rec Interaction) {
	if err := h.recorder.Record(ctx, rec); err != nil {
		h.logger.Warn().Err(err).
			Str(nlog.FieldInteractionID, rec.ID).
			Str(nlog.FieldTool, string(rec.Tool)).
			Msg("failed to record interaction")
	}
}

func deviceResult(text string, status Status) Result {
	return Result{Text: text, Status: status, Processing: ProcessingOnDevice}
}

func cloudResult(env transport.Envelope, status Status) Result {
	return Result{Text: ExtractText(env), Status: status, Processing: ProcessingCloud, Raw: env}
}
