// Package metrics keeps an in-memory history of tool interactions for the dashboard
// and exports the same events as Prometheus metrics.
package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nyra-ai/nyra/internal/orchestrate"
)

const (
	// MaxInteractions is the number of interactions kept in memory
	MaxInteractions = 500

	// CleanupInterval is how often expired interactions are dropped
	CleanupInterval = 5 * time.Minute

	// Retention is how long an interaction stays in the history
	Retention = 24 * time.Hour

	// EstimatedCloudCallCost is the assumed USD price of one cloud call, used for
	// the cost-saved estimate of on-device work.
	EstimatedCloudCallCost = 0.30
)

// Store holds recent interactions. It satisfies orchestrate.Recorder.
type Store struct {
	mu      sync.RWMutex
	records []orchestrate.Interaction
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	looping  bool
}

// NewStore creates a store with background cleanup. Call Stop to end it.
func NewStore() *Store {
	s := newStore(time.Now)
	s.looping = true
	go s.cleanupLoop(CleanupInterval)
	return s
}

func newStore(now func() time.Time) *Store {
	return &Store{
		records: make([]orchestrate.Interaction, 0, MaxInteractions),
		now:     now,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Stop ends the background cleanup goroutine and waits for it to exit.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.looping {
			<-s.done
		}
	})
}

// Record appends rec to the history and updates the exported metrics.
func (s *Store) Record(_ context.Context, rec orchestrate.Interaction) error {
	observe(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > MaxInteractions {
		excess := len(s.records) - MaxInteractions
		s.records = append(s.records[:0:0], s.records[excess:]...)
	}
	return nil
}

// Since returns interactions recorded after t, oldest first.
func (s *Store) Since(t time.Time) []orchestrate.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []orchestrate.Interaction
	for _, rec := range s.records {
		if rec.Timestamp.After(t) {
			result = append(result, rec)
		}
	}
	return result
}

// Latest returns up to n interactions, newest first.
func (s *Store) Latest(n int) []orchestrate.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.records) {
		n = len(s.records)
	}
	result := make([]orchestrate.Interaction, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.records[i])
	}
	return result
}

// Len returns the number of interactions held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear removes all interactions
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

func (s *Store) cleanupLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup drops interactions older than Retention
func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-Retention)
	keep := s.records[:0]
	for _, rec := range s.records {
		if !rec.Timestamp.Before(cutoff) {
			keep = append(keep, rec)
		}
	}
	s.records = keep
}

// Summary aggregates the history for the dashboard.
type Summary struct {
	TotalRequests int           `json:"total_requests"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	OnDevice      int           `json:"on_device_ops"`
	Cloud         int           `json:"cloud_ops"`
	AvgLatency    time.Duration `json:"avg_latency_ns"`
	CostSaved     float64       `json:"cost_saved_usd"`
	PrivacyScore  float64       `json:"privacy_score"`
}

// ToolSummary aggregates the history of one tool.
type ToolSummary struct {
	Tool       orchestrate.Tool `json:"tool"`
	Count      int              `json:"count"`
	Failed     int              `json:"failed"`
	AvgLatency time.Duration    `json:"avg_latency_ns"`
}

// Summary computes aggregate statistics over the held interactions.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	var total time.Duration
	for _, rec := range s.records {
		sum.TotalRequests++
		total += time.Duration(rec.DurationMs) * time.Millisecond
		if !rec.Success {
			sum.Failed++
			continue
		}
		sum.Succeeded++
		switch rec.Processing {
		case orchestrate.ProcessingOnDevice:
			sum.OnDevice++
		case orchestrate.ProcessingCloud:
			sum.Cloud++
		}
	}
	if sum.TotalRequests > 0 {
		sum.AvgLatency = total / time.Duration(sum.TotalRequests)
	}
	if sum.Succeeded > 0 {
		sum.PrivacyScore = float64(sum.OnDevice) / float64(sum.Succeeded) * 100
	}
	sum.CostSaved = float64(sum.OnDevice) * EstimatedCloudCallCost
	return sum
}

// ByTool returns per-tool statistics sorted by descending count.
func (s *Store) ByTool() []ToolSummary {
	s.mu.RLock()
	byTool := make(map[orchestrate.Tool]*ToolSummary)
	totals := make(map[orchestrate.Tool]time.Duration)
	for _, rec := range s.records {
		ts, ok := byTool[rec.Tool]
		if !ok {
			ts = &ToolSummary{Tool: rec.Tool}
			byTool[rec.Tool] = ts
		}
		ts.Count++
		if !rec.Success {
			ts.Failed++
		}
		totals[rec.Tool] += time.Duration(rec.DurationMs) * time.Millisecond
	}
	s.mu.RUnlock()

	result := make([]ToolSummary, 0, len(byTool))
	for tool, ts := range byTool {
		ts.AvgLatency = totals[tool] / time.Duration(ts.Count)
		result = append(result, *ts)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tool < result[j].Tool
	})
	return result
}
