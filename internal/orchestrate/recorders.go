package orchestrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	nlog "github.com/nyra-ai/nyra/internal/log"
	"github.com/nyra-ai/nyra/internal/transport"
)

// InteractionsCollection is the document collection interactions are persisted to.
const InteractionsCollection = "interactions"

// NopDisplay discards all output.
type NopDisplay struct{}

func (NopDisplay) ShowLoading(Tool, string) {}
func (NopDisplay) ShowResult(Tool, Result)  {}
func (NopDisplay) ShowError(Tool, string)   {}

// NopRecorder discards interactions.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Interaction) error { return nil }

// LogRecorder writes each interaction as a structured log entry.
type LogRecorder struct {
	logger zerolog.Logger
}

// NewLogRecorder returns a recorder logging under the "interactions" component.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{logger: nlog.WithComponent("interactions")}
}

func (r *LogRecorder) Record(_ context.Context, rec Interaction) error {
	r.logger.Info().
		Str(nlog.FieldInteractionID, rec.ID).
		Str(nlog.FieldTool, string(rec.Tool)).
		Str(nlog.FieldStatus, string(rec.Status)).
		Bool("success", rec.Success).
		Int64(nlog.FieldDurationMs, rec.DurationMs).
		Str("processing", rec.Processing).
		Str("error", rec.Error).
		Msg("interaction logged")
	return nil
}

// Saver persists a document; api.Client satisfies it.
type Saver interface {
	SaveData(ctx context.Context, collection, document string, data any) (transport.Envelope, error)
}

// RemoteRecorder saves each interaction to the backend document store.
type RemoteRecorder struct {
	saver Saver
}

// NewRemoteRecorder returns a recorder persisting through saver.
func NewRemoteRecorder(saver Saver) *RemoteRecorder {
	return &RemoteRecorder{saver: saver}
}

// DocumentID returns the document key an interaction is stored under.
func DocumentID(rec Interaction) string {
	return fmt.Sprintf("int_%d", rec.Timestamp.UnixMilli())
}

func (r *RemoteRecorder) Record(ctx context.Context, rec Interaction) error {
	if _, err := r.saver.SaveData(ctx, InteractionsCollection, DocumentID(rec), rec); err != nil {
		return fmt.Errorf("save interaction %s: %w", rec.ID, err)
	}
	return nil
}

// MultiRecorder fans an interaction out to every recorder.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, rec Interaction) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
