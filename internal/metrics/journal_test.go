package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyra-ai/nyra/internal/orchestrate"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", JournalFileName)
	j := NewJournal(path)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, j.Record(ctx, interaction(orchestrate.ToolPrompt, orchestrate.StatusNano, orchestrate.ProcessingOnDevice, 40, now)))
	require.NoError(t, j.Record(ctx, interaction(orchestrate.ToolWriter, orchestrate.StatusError, "", 90, now.Add(time.Second))))

	recs, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, orchestrate.ToolPrompt, recs[0].Tool)
	assert.True(t, recs[0].Timestamp.Equal(now))
	assert.False(t, recs[1].Success)
}

func TestJournalCompactsPastSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), JournalFileName)
	now := time.Now().UTC()
	j := NewJournal(path)
	j.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, interaction(orchestrate.ToolPrompt, orchestrate.StatusPro, orchestrate.ProcessingCloud, 1, now.Add(-48*time.Hour))))
	for i := 0; i < MaxInteractions-1; i++ {
		require.NoError(t, j.Record(ctx, interaction(orchestrate.ToolRewriter, orchestrate.StatusSuccess, orchestrate.ProcessingCloud, 1, now)))
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	j.maxBytes = info.Size()

	require.NoError(t, j.Record(ctx, interaction(orchestrate.ToolWriter, orchestrate.StatusSuccess, orchestrate.ProcessingCloud, 1, now)))

	recs, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, recs, MaxInteractions)
	for _, rec := range recs {
		assert.False(t, rec.Timestamp.Before(now.Add(-Retention)))
	}
	assert.Equal(t, orchestrate.ToolWriter, recs[len(recs)-1].Tool)
}

func TestReadJournalSkipsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), JournalFileName)
	content := "not json\n{}\n" + `{"id":"a","tool":"prompt","status":"pro","success":true,"processing":"cloud","timestamp":"2026-01-01T00:00:00Z","processing_time_ms":5}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	recs, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, orchestrate.StatusPro, recs[0].Status)
}

func TestReadJournalMissing(t *testing.T) {
	recs, err := ReadJournal(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadAppliesRetentionAndBound(t *testing.T) {
	now := time.Now()
	s := newStore(func() time.Time { return now })

	recs := []orchestrate.Interaction{
		interaction(orchestrate.ToolPrompt, orchestrate.StatusPro, orchestrate.ProcessingCloud, 1, now.Add(-48*time.Hour)),
	}
	for i := 0; i < MaxInteractions+5; i++ {
		recs = append(recs, interaction(orchestrate.ToolRewriter, orchestrate.StatusSuccess, orchestrate.ProcessingCloud, 1, now.Add(time.Duration(i)*time.Millisecond)))
	}

	s.Load(recs)
	assert.Equal(t, MaxInteractions, s.Len())
	assert.Equal(t, orchestrate.ToolRewriter, s.Latest(1)[0].Tool)
}
