// Package loader batch-loads a corpus source into an engine and finalizes
// it. Documents that only fail on their own (no usable terms) are counted
// and skipped; anything else aborts the load and leaves the engine
// INGESTING.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vnadhan/Inverted-Index/internal/analytics"
	"github.com/vnadhan/Inverted-Index/internal/indexer"
	"github.com/vnadhan/Inverted-Index/internal/ingestion/source"
	"github.com/vnadhan/Inverted-Index/pkg/resilience"
	"github.com/vnadhan/Inverted-Index/pkg/tracing"
)

type Report struct {
	Source      string        `json:"source"`
	Documents   int           `json:"documents"`
	Skipped     int           `json:"skipped"`
	Terms       int           `json:"terms"`
	Strategy    string        `json:"strategy"`
	Fingerprint string        `json:"fingerprint"`
	Duration    time.Duration `json:"duration"`
}

// CorpusTracker is satisfied by *analytics.Collector.
type CorpusTracker interface {
	TrackCorpus(event analytics.CorpusEvent)
}

type Loader struct {
	engine  *indexer.Engine
	timeout time.Duration
	tracker CorpusTracker
	logger  *slog.Logger
}

// New creates a loader. A zero timeout disables the deadline; tracker may
// be nil.
func New(engine *indexer.Engine, timeout time.Duration, tracker CorpusTracker) *Loader {
	return &Loader{
		engine:  engine,
		timeout: timeout,
		tracker: tracker,
		logger:  slog.Default().With("component", "corpus-loader"),
	}
}

// Load streams src into the engine and finalizes it.
func (l *Loader) Load(ctx context.Context, src source.Source) (*Report, error) {
	start := time.Now()
	l.logger.Info("loading corpus", "source", src.Name(), "timeout", l.timeout)
	ctx, span := tracing.Start(ctx, "corpus-load", src.Name())
	defer func() {
		span.End()
		span.Log(l.logger)
	}()

	_, ingestSpan := tracing.Start(ctx, "ingest", "")
	err := resilience.WithTimeout(ctx, l.timeout, "corpus-load", func(ctx context.Context) error {
		return src.Each(ctx, func(text string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := l.engine.Ingest(text)
			if err != nil && !indexer.IsSkippable(err) {
				return fmt.Errorf("ingesting document %d: %w", id, err)
			}
			return nil
		})
	})
	ingestSpan.End()
	if err != nil {
		return nil, fmt.Errorf("loading corpus from %s: %w", src.Name(), err)
	}
	_, finalizeSpan := tracing.Start(ctx, "finalize", "")
	err = l.engine.Finalize()
	finalizeSpan.End()
	if err != nil {
		return nil, fmt.Errorf("finalizing index: %w", err)
	}

	stats := l.engine.Stats()
	report := &Report{
		Source:      src.Name(),
		Documents:   stats.Documents,
		Skipped:     stats.Skipped,
		Terms:       stats.Terms,
		Strategy:    stats.Strategy,
		Fingerprint: stats.Fingerprint,
		Duration:    time.Since(start),
	}
	l.logger.Info("corpus loaded",
		"source", report.Source,
		"documents", report.Documents,
		"skipped", report.Skipped,
		"terms", report.Terms,
		"duration_ms", report.Duration.Milliseconds(),
	)
	if l.tracker != nil {
		l.tracker.TrackCorpus(analytics.CorpusEvent{
			Type:        analytics.EventCorpusLoad,
			Source:      report.Source,
			Documents:   report.Documents,
			Skipped:     report.Skipped,
			Terms:       report.Terms,
			Strategy:    report.Strategy,
			Fingerprint: report.Fingerprint,
			LatencyMs:   report.Duration.Milliseconds(),
			Timestamp:   time.Now().UTC(),
		})
	}
	return report, nil
}
