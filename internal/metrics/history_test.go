package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nyra-ai/nyra/internal/orchestrate"
)

func interaction(tool orchestrate.Tool, status orchestrate.Status, processing string, ms int64, at time.Time) orchestrate.Interaction {
	return orchestrate.Interaction{
		ID:         fmt.Sprintf("%s-%d", tool, at.UnixNano()),
		Tool:       tool,
		Status:     status,
		Success:    status != orchestrate.StatusError,
		Processing: processing,
		Timestamp:  at,
		DurationMs: ms,
	}
}

func TestStoreStopDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewStore()
	s.Stop()
	s.Stop()
}

func TestSummary(t *testing.T) {
	now := time.Now()
	s := newStore(time.Now)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, interaction(orchestrate.ToolPrompt, orchestrate.StatusNano, orchestrate.ProcessingOnDevice, 100, now)))
	require.NoError(t, s.Record(ctx, interaction(orchestrate.ToolPrompt, orchestrate.StatusPro, orchestrate.ProcessingCloud, 300, now)))
	require.NoError(t, s.Record(ctx, interaction(orchestrate.ToolSummarizer, orchestrate.StatusSuccess, orchestrate.ProcessingOnDevice, 200, now)))
	require.NoError(t, s.Record(ctx, interaction(orchestrate.ToolWriter, orchestrate.StatusError, "", 400, now)))

	sum := s.Summary()
	assert.Equal(t, 4, sum.TotalRequests)
	assert.Equal(t, 3, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.OnDevice)
	assert.Equal(t, 1, sum.Cloud)
	assert.Equal(t, 250*time.Millisecond, sum.AvgLatency)
	assert.InDelta(t, 0.60, sum.CostSaved, 1e-9)
	assert.InDelta(t, 66.67, sum.PrivacyScore, 0.01)

	tools := s.ByTool()
	require.Len(t, tools, 3)
	assert.Equal(t, orchestrate.ToolPrompt, tools[0].Tool)
	assert.Equal(t, 2, tools[0].Count)
	assert.Equal(t, 200*time.Millisecond, tools[0].AvgLatency)
}

func TestEmptySummary(t *testing.T) {
	s := newStore(time.Now)
	assert.Equal(t, Summary{}, s.Summary())
	assert.Empty(t, s.ByTool())
	assert.Empty(t, s.Latest(5))
}

func TestLatestNewestFirst(t *testing.T) {
	base := time.Now()
	s := newStore(time.Now)
	for i := 0; i < 5; i++ {
		_ = s.Record(context.Background(), interaction(orchestrate.ToolRewriter, orchestrate.StatusSuccess, orchestrate.ProcessingCloud, 10, base.Add(time.Duration(i)*time.Second)))
	}

	latest := s.Latest(2)
	require.Len(t, latest, 2)
	assert.Equal(t, base.Add(4*time.Second), latest[0].Timestamp)
	assert.Equal(t, base.Add(3*time.Second), latest[1].Timestamp)

	assert.Len(t, s.Since(base.Add(2*time.Second)), 2)
}

func TestHistoryIsBounded(t *testing.T) {
	s := newStore(time.Now)
	base := time.Now()
	for i := 0; i < MaxInteractions+25; i++ {
		_ = s.Record(context.Background(), interaction(orchestrate.ToolPrompt, orchestrate.StatusPro, orchestrate.ProcessingCloud, 1, base.Add(time.Duration(i)*time.Millisecond)))
	}
	assert.Equal(t, MaxInteractions, s.Len())
	assert.Equal(t, base.Add(time.Duration(MaxInteractions+24)*time.Millisecond), s.Latest(1)[0].Timestamp)
}

func TestCleanupDropsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newStore(func() time.Time { return now })

	_ = s.Record(context.Background(), interaction(orchestrate.ToolPrompt, orchestrate.StatusPro, orchestrate.ProcessingCloud, 1, now.Add(-Retention-time.Minute)))
	_ = s.Record(context.Background(), interaction(orchestrate.ToolPrompt, orchestrate.StatusPro, orchestrate.ProcessingCloud, 1, now.Add(-time.Minute)))

	s.cleanup()
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestRecordUpdatesCounters(t *testing.T) {
	counter := InteractionsTotal.WithLabelValues("translator", "success", "on-device")
	before := counterValue(t, counter)

	s := newStore(time.Now)
	_ = s.Record(context.Background(), interaction(orchestrate.ToolTranslator, orchestrate.StatusSuccess, orchestrate.ProcessingOnDevice, 5, time.Now()))

	assert.Equal(t, before+1, counterValue(t, counter))
}

func TestCodeClass(t *testing.T) {
	assert.Equal(t, "2xx", codeClass(200))
	assert.Equal(t, "4xx", codeClass(404))
	assert.Equal(t, "5xx", codeClass(503))
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
