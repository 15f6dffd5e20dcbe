package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vnadhan/Inverted-Index/internal/ingestion"
	"github.com/vnadhan/Inverted-Index/pkg/kafka"
)

// Kafka replays the corpus topic from its first offset and stops once the
// topic has been idle for the configured timeout.
type Kafka struct {
	idle        time.Duration
	newConsumer func(kafka.MessageHandler) *kafka.Consumer
	logger      *slog.Logger
}

func NewKafka(idle time.Duration, newConsumer func(kafka.MessageHandler) *kafka.Consumer) *Kafka {
	return &Kafka{
		idle:        idle,
		newConsumer: newConsumer,
		logger:      slog.Default().With("component", "kafka-source"),
	}
}

func (k *Kafka) Name() string {
	return "kafka"
}

func (k *Kafka) Each(ctx context.Context, fn func(text string) error) error {
	expected := 0
	consumer := k.newConsumer(func(ctx context.Context, key, value []byte) error {
		doc, err := kafka.DecodeJSON[ingestion.CorpusDocument](value)
		if err != nil {
			return err
		}
		if doc.Seq != expected {
			k.logger.Warn("corpus message out of sequence",
				"seq", doc.Seq,
				"expected", expected,
			)
		}
		expected = doc.Seq + 1
		return fn(doc.Text)
	})
	defer consumer.Close()

	n, err := consumer.Drain(ctx, k.idle)
	if err != nil {
		return fmt.Errorf("consuming corpus topic: %w", err)
	}
	k.logger.Info("corpus topic consumed", "messages", n)
	return nil
}
