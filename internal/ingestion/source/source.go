// Package source reads a corpus, one document text at a time and in a fixed
// order, from a file, a Kafka topic or the Postgres documents table.
package source

import (
	"context"
	"fmt"

	"github.com/vnadhan/Inverted-Index/pkg/config"
	"github.com/vnadhan/Inverted-Index/pkg/kafka"
	"github.com/vnadhan/Inverted-Index/pkg/postgres"
)

// Source streams document texts to fn in corpus order. An error from fn
// stops the stream and is returned.
type Source interface {
	Name() string
	Each(ctx context.Context, fn func(text string) error) error
}

// Open builds the source named by cfg.Corpus.Source. The returned closer
// releases any connection the source holds.
func Open(ctx context.Context, cfg *config.Config) (Source, func() error, error) {
	switch cfg.Corpus.Source {
	case config.SourceFile:
		return NewFile(cfg.Corpus.Path), func() error { return nil }, nil
	case config.SourceKafka:
		src := NewKafka(cfg.Corpus.IdleTimeout, func(h kafka.MessageHandler) *kafka.Consumer {
			return kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Corpus, h)
		})
		return src, func() error { return nil }, nil
	case config.SourcePostgres:
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres source: %w", err)
		}
		return NewPostgres(func(ctx context.Context) (Rows, error) {
			return db.QueryDocuments(ctx)
		}), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}
