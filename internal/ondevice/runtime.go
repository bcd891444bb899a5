package ondevice

import "context"

// Readiness is the runtime's answer to "can a text session be created now".
type Readiness string

const (
	Readily       Readiness = "readily"
	AfterDownload Readiness = "after-download"
	No            Readiness = "no"
)

// Session is an ephemeral handle bound to one call. Destroy releases it.
type Session interface {
	Run(ctx context.Context, input string) (string, error)
	Destroy() error
}

// Runtime is an on-device model host able to open text sessions.
type Runtime interface {
	Name() string
	TextReadiness(ctx context.Context) (Readiness, error)
	NewTextSession(ctx context.Context, opts GenerateOptions) (Session, error)
}

// SummarizerRuntime is implemented by runtimes with a summarization capability.
type SummarizerRuntime interface {
	NewSummarizer(ctx context.Context, opts SummarizeOptions) (Session, error)
}

// TranslatorRuntime is implemented by runtimes with a translation capability.
type TranslatorRuntime interface {
	NewTranslator(ctx context.Context, targetLanguage string, opts TranslateOptions) (Session, error)
}

// GenerateOptions tunes text sessions. Zero values take the defaults.
type GenerateOptions struct {
	Temperature float64
	TopK        int
}

const (
	DefaultTemperature    = 0.7
	DefaultTopK           = 40
	DefaultSummaryType    = "tldr"
	DefaultSummaryLength  = "medium"
	DefaultSourceLanguage = "auto"
)

func (o GenerateOptions) withDefaults() GenerateOptions {
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	return o
}

// SummarizeOptions selects the summary style.
type SummarizeOptions struct {
	Type   string // tldr, key-points, teaser, headline
	Length string // short, medium, long
}

func (o SummarizeOptions) withDefaults() SummarizeOptions {
	if o.Type == "" {
		o.Type = DefaultSummaryType
	}
	if o.Length == "" {
		o.Length = DefaultSummaryLength
	}
	return o
}

// TranslateOptions selects the source language; "auto" lets the runtime detect it.
type TranslateOptions struct {
	SourceLanguage string
}

func (o TranslateOptions) withDefaults() TranslateOptions {
	if o.SourceLanguage == "" {
		o.SourceLanguage = DefaultSourceLanguage
	}
	return o
}
