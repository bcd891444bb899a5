package ondevice

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means no on-device runtime is present.
	ErrUnavailable = errors.New("on-device AI not available")
	// ErrNotInitialized is returned by GenerateText before a successful Initialize.
	ErrNotInitialized = errors.New("on-device AI not initialized")
	// ErrSummarizerUnavailable means the runtime has no summarization capability.
	ErrSummarizerUnavailable = errors.New("summarizer API not available")
	// ErrTranslatorUnavailable means the runtime has no translation capability.
	ErrTranslatorUnavailable = errors.New("translator API not available")
	// ErrSessionClosed is returned when a released session is used again.
	ErrSessionClosed = errors.New("on-device session already released")
)

// GenerationError wraps a runtime failure while creating or using a session.
type GenerationError struct {
	Op  string // "generate", "summarize" or "translate"
	Err error
}

func (e *GenerationError) Error() string {
	switch e.Op {
	case "summarize":
		return fmt.Sprintf("summarization failed: %v", e.Err)
	case "translate":
		return fmt.Sprintf("translation failed: %v", e.Err)
	default:
		return fmt.Sprintf("text generation failed: %v", e.Err)
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NotReadyError is returned by Initialize when the runtime answers anything but Readily.
type NotReadyError struct {
	Readiness Readiness
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("on-device model not ready: %s", e.Readiness)
}
