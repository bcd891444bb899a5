package metrics

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/orchestrate"
)

// JournalFileName is the interaction journal kept in the logs directory.
const JournalFileName = "interactions.jsonl"

// JournalMaxBytes is the size past which the journal is compacted down to the
// records History would keep.
const JournalMaxBytes = 512 * 1024

// Journal appends interactions to a JSON-lines file so separate CLI processes
// (a tool run and a dashboard) share one history. It satisfies orchestrate.Recorder.
type Journal struct {
	path     string
	maxBytes int64
	now      func() time.Time
	mu       sync.Mutex
}

// NewJournal returns a journal writing to path.
func NewJournal(path string) *Journal {
	return &Journal{path: path, maxBytes: JournalMaxBytes, now: time.Now}
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) Record(_ context.Context, rec orchestrate.Interaction) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append journal: %w", err)
	}
	info, err := f.Stat()
	f.Close()
	if err != nil || info.Size() <= j.maxBytes {
		return nil
	}
	return j.compact()
}

// compact rewrites the journal with only the records inside Retention, capped
// at MaxInteractions. Callers hold j.mu.
func (j *Journal) compact() error {
	recs, err := ReadJournal(j.path)
	if err != nil {
		return err
	}

	cutoff := j.now().Add(-Retention)
	var buf bytes.Buffer
	kept := 0
	start := max(0, len(recs)-MaxInteractions)
	for _, rec := range recs[start:] {
		if rec.Timestamp.Before(cutoff) {
			continue
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode interaction: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		kept++
	}

	if err := renameio.WriteFile(j.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("compact journal: %w", err)
	}
	logger := nlog.WithComponent("journal")
	logger.Debug().Str("path", j.path).Int("before", len(recs)).Int("after", kept).Msg("compacted interaction journal")
	return nil
}

// ReadJournal returns every well-formed interaction in the journal at path,
// oldest first. A missing journal is empty.
func ReadJournal(path string) ([]orchestrate.Interaction, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var recs []orchestrate.Interaction
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec orchestrate.Interaction
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil || rec.Tool == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, scanner.Err()
}

// Load replaces the history with recs, keeping the newest MaxInteractions that
// are within Retention. Loaded records are not re-exported as metrics.
func (s *Store) Load(recs []orchestrate.Interaction) {
	cutoff := s.now().Add(-Retention)

	kept := make([]orchestrate.Interaction, 0, min(len(recs), MaxInteractions))
	for _, rec := range recs {
		if !rec.Timestamp.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	if len(kept) > MaxInteractions {
		kept = kept[len(kept)-MaxInteractions:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = kept
}
