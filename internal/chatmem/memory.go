// Package chatmem keeps the conversation history of an interactive chat session.
// Recent turns are kept verbatim; older turns are folded into a running summary.
package chatmem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

const (
	// MaxMessages is the maximum number of messages to keep verbatim.
	// Older messages are summarized.
	MaxMessages = 6

	// maxContextChars bounds a single message when it is replayed as context.
	maxContextChars = 600
)

// ErrCompactionInProgress is returned when Compact is already running.
var ErrCompactionInProgress = errors.New("chatmem: compaction already in progress")

// Message represents a single message in the chat history.
type Message struct {
	Role        string `json:"role"` // "user" or "assistant"
	Content     string `json:"content"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// Memory is the persistent chat history.
type Memory struct {
	Version       int       `json:"version"`
	LastUpdatedMs int64     `json:"last_updated_ms"`
	Summary       string    `json:"summary"`
	Messages      []Message `json:"messages"`

	mu         sync.RWMutex
	path       string
	compacting bool
}

// New creates a new empty Memory.
func New() *Memory {
	return &Memory{
		Version:  1,
		Messages: make([]Message, 0),
	}
}

// FilePath returns the per-client history file inside chatsDir.
func FilePath(chatsDir, clientID string) string {
	if clientID == "" {
		clientID = "default"
	}
	return filepath.Join(chatsDir, "chat_memory_"+clientID+".json")
}

// Load reads the history at path. A missing file yields an empty Memory bound to path.
func Load(path string) (*Memory, error) {
	m := New()
	m.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chat memory: %w", err)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse chat memory %s: %w", path, err)
	}
	return m, nil
}

// Save persists the history to its file. A Memory without a path is not persisted.
func (m *Memory) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

// saveLocked writes to disk (caller must hold a lock)
func (m *Memory) saveLocked() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("create chat memory directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chat memory: %w", err)
	}

	pending, err := renameio.NewPendingFile(m.path, renameio.WithPermissions(0600))
	if err != nil {
		return fmt.Errorf("create pending chat memory file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write chat memory: %w", err)
	}
	return pending.CloseAtomicallyReplace()
}

// Add appends a message. It does not compact; call Compact when NeedsCompaction reports true.
func (m *Memory) Add(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := Message{
		Role:        role,
		Content:     content,
		TimestampMs: time.Now().UnixMilli(),
	}
	m.Messages = append(m.Messages, msg)
	m.LastUpdatedMs = msg.TimestampMs
}

// NeedsCompaction reports whether more than MaxMessages are held verbatim.
func (m *Memory) NeedsCompaction() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Messages) > MaxMessages
}

// SummarizerFunc folds messages into the current summary and returns the new summary.
type SummarizerFunc func(ctx context.Context, currentSummary string, messages []Message) (string, error)

// Compact summarizes the oldest messages beyond MaxMessages. The summarizer runs
// without the lock held; the result is applied only if the compacted messages are
// still at the head of the history.
func (m *Memory) Compact(ctx context.Context, summarize SummarizerFunc) error {
	m.mu.Lock()
	if m.compacting {
		m.mu.Unlock()
		return ErrCompactionInProgress
	}
	excess := len(m.Messages) - MaxMessages
	if excess <= 0 {
		m.mu.Unlock()
		return nil
	}
	head := make([]Message, excess)
	copy(head, m.Messages[:excess])
	current := m.Summary
	m.compacting = true
	m.mu.Unlock()

	newSummary, err := summarize(ctx, current, head)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.compacting = false

	if err != nil {
		return fmt.Errorf("summarize chat history: %w", err)
	}
	if len(m.Messages) < len(head) || m.Messages[0].TimestampMs != head[0].TimestampMs {
		return nil
	}

	m.Summary = strings.TrimSpace(newSummary)
	m.Messages = append([]Message(nil), m.Messages[len(head):]...)
	m.LastUpdatedMs = time.Now().UnixMilli()
	return m.saveLocked()
}

// Context renders the summary, the recent messages and input as one prompt.
func (m *Memory) Context(input string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Summary == "" && len(m.Messages) == 0 {
		return input
	}

	var sb strings.Builder
	if m.Summary != "" {
		sb.WriteString("Conversation summary:\n")
		sb.WriteString(m.Summary)
		sb.WriteString("\n\n")
	}
	if len(m.Messages) > 0 {
		sb.WriteString("Recent messages:\n")
		sb.WriteString(Transcript(m.Messages))
		sb.WriteString("\n")
	}
	sb.WriteString("user: ")
	sb.WriteString(input)
	return sb.String()
}

// Transcript renders messages one per line as "role: content".
func Transcript(messages []Message) string {
	var sb strings.Builder
	for _, msg := range messages {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(truncate(msg.Content, maxContextChars))
		sb.WriteString("\n")
	}
	return sb.String()
}

// GetMessages returns a copy of the current messages.
func (m *Memory) GetMessages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Message, len(m.Messages))
	copy(result, m.Messages)
	return result
}

// GetSummary returns the summary of older messages.
func (m *Memory) GetSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Summary
}

// Clear drops the summary and all messages and persists the empty history.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summary = ""
	m.Messages = m.Messages[:0]
	m.LastUpdatedMs = time.Now().UnixMilli()
	return m.saveLocked()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
