// Package ondevice detects a local AI runtime and runs generate, summarize and
// translate through it with a create / use / destroy session lifecycle per call.
package ondevice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	nlog "github.com/nyra-ai/nyra/internal/log"
)

// State is the probe's view of the on-device runtime.
type State int

const (
	StateUnchecked State = iota
	StateUnavailable
	StateAvailable
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateUnavailable:
		return "unavailable"
	case StateAvailable:
		return "available"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Probe tracks runtime availability and gates session use on readiness.
// It is safe for concurrent use.
type Probe struct {
	rt     Runtime
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// Report is a point-in-time snapshot of the probe.
type Report struct {
	Runtime    string `json:"runtime"`
	State      string `json:"state"`
	Available  bool   `json:"available"`
	Ready      bool   `json:"ready"`
	Summarizer bool   `json:"summarizer"`
	Translator bool   `json:"translator"`
}

// NewProbe creates a probe for rt and runs CheckAvailability. A nil rt is unavailable.
func NewProbe(rt Runtime) *Probe {
	p := &Probe{
		rt:     rt,
		logger: nlog.WithComponent("ondevice"),
	}
	p.CheckAvailability()
	return p
}

// CheckAvailability records whether a runtime is present.
func (p *Probe) CheckAvailability() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rt == nil {
		p.setState(StateUnavailable)
		return false
	}
	if p.state == StateUnchecked || p.state == StateUnavailable {
		p.setState(StateAvailable)
	}
	return true
}

// Initialize asks the runtime whether a text session can be created now.
// It may be called repeatedly; each call re-evaluates readiness.
func (p *Probe) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnchecked || p.state == StateUnavailable || p.rt == nil {
		return ErrUnavailable
	}

	readiness, err := p.rt.TextReadiness(ctx)
	if err != nil {
		p.setState(StateFailed)
		p.logger.Warn().Err(err).Str(nlog.FieldRuntime, p.rt.Name()).Msg("on-device readiness check failed")
		return err
	}
	if readiness != Readily {
		p.setState(StateFailed)
		return &NotReadyError{Readiness: readiness}
	}
	p.setState(StateReady)
	return nil
}

// setState must be called with mu held.
func (p *Probe) setState(next State) {
	if p.state == next {
		return
	}
	p.logger.Debug().
		Str(nlog.FieldOldState, p.state.String()).
		Str(nlog.FieldNewState, next.String()).
		Msg("on-device state changed")
	p.state = next
}

// State returns the current state.
func (p *Probe) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Available reports whether a runtime is present, regardless of readiness.
func (p *Probe) Available() bool {
	switch p.State() {
	case StateAvailable, StateReady, StateFailed:
		return true
	default:
		return false
	}
}

// Ready reports whether Initialize succeeded.
func (p *Probe) Ready() bool {
	return p.State() == StateReady
}

// Report snapshots the probe and the runtime's sub-capabilities.
func (p *Probe) Report() Report {
	state := p.State()
	r := Report{
		Runtime:   "none",
		State:     state.String(),
		Available: state == StateAvailable || state == StateReady || state == StateFailed,
		Ready:     state == StateReady,
	}
	if p.rt != nil {
		r.Runtime = p.rt.Name()
		_, r.Summarizer = p.rt.(SummarizerRuntime)
		_, r.Translator = p.rt.(TranslatorRuntime)
	}
	return r
}

// GenerateText runs prompt through a fresh text session.
func (p *Probe) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if !p.Ready() {
		return "", ErrNotInitialized
	}
	opts = opts.withDefaults()
	return p.run(ctx, "generate", prompt, func(ctx context.Context) (Session, error) {
		return p.rt.NewTextSession(ctx, opts)
	})
}

// Summarize condenses text through a fresh summarizer session.
func (p *Probe) Summarize(ctx context.Context, text string, opts SummarizeOptions) (string, error) {
	sr, ok := p.rt.(SummarizerRuntime)
	if !ok {
		return "", ErrSummarizerUnavailable
	}
	opts = opts.withDefaults()
	return p.run(ctx, "summarize", text, func(ctx context.Context) (Session, error) {
		return sr.NewSummarizer(ctx, opts)
	})
}

// Translate converts text into targetLanguage through a fresh translator session.
func (p *Probe) Translate(ctx context.Context, text, targetLanguage string, opts TranslateOptions) (string, error) {
	tr, ok := p.rt.(TranslatorRuntime)
	if !ok {
		return "", ErrTranslatorUnavailable
	}
	opts = opts.withDefaults()
	return p.run(ctx, "translate", text, func(ctx context.Context) (Session, error) {
		return tr.NewTranslator(ctx, targetLanguage, opts)
	})
}

func (p *Probe) run(ctx context.Context, op, input string, open func(context.Context) (Session, error)) (string, error) {
	inner, err := open(ctx)
	if err != nil {
		return "", &GenerationError{Op: op, Err: err}
	}

	sess := track(inner)
	defer func() {
		if derr := sess.Destroy(); derr != nil {
			p.logger.Warn().Err(derr).Str("op", op).Msg("failed to release on-device session")
		}
	}()

	out, err := sess.Run(ctx, input)
	if err != nil {
		return "", &GenerationError{Op: op, Err: err}
	}
	return out, nil
}

// trackedSession releases its inner session at most once and rejects use afterwards.
type trackedSession struct {
	inner  Session
	once   sync.Once
	closed atomic.Bool
}

func track(s Session) *trackedSession {
	return &trackedSession{inner: s}
}

func (t *trackedSession) Run(ctx context.Context, input string) (string, error) {
	if t.closed.Load() {
		return "", ErrSessionClosed
	}
	return t.inner.Run(ctx, input)
}

func (t *trackedSession) Destroy() error {
	err := ErrSessionClosed
	t.once.Do(func() {
		t.closed.Store(true)
		err = t.inner.Destroy()
	})
	return err
}

// IsCapabilityMissing reports whether err means the runtime lacks the requested capability.
func IsCapabilityMissing(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrSummarizerUnavailable) ||
		errors.Is(err, ErrTranslatorUnavailable)
}
