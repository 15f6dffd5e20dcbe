// Package publisher writes corpus documents to the sinks the searcher loads
// from: the Postgres documents table and the ordered Kafka corpus topic.
// Either sink may be absent, but not both.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vnadhan/Inverted-Index/internal/ingestion"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
	"github.com/vnadhan/Inverted-Index/pkg/kafka"
)

// DocumentStore is satisfied by *postgres.Client.
type DocumentStore interface {
	InsertDocuments(ctx context.Context, bodies []string) ([]int64, error)
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

var errNoSink = errors.New("publisher has no sink configured")

// Publisher assigns every published document the next corpus sequence
// number. Publish calls are serialized so sequence numbers, row ids and
// topic offsets all follow the same order.
type Publisher struct {
	store    DocumentStore
	producer EventPublisher
	mu       sync.Mutex
	nextSeq  int
	logger   *slog.Logger
}

// New creates a Publisher whose first document gets sequence number
// startSeq. Pass a nil interface for a sink that is not in use.
func New(store DocumentStore, producer EventPublisher, startSeq int) *Publisher {
	return &Publisher{
		store:    store,
		producer: producer,
		nextSeq:  startSeq,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Publish stores the batch in Postgres first, in one transaction, then
// publishes it to Kafka. A Kafka failure after a successful insert is
// returned with Stored set so the caller knows the rows exist.
func (p *Publisher) Publish(ctx context.Context, docs []string) (*ingestion.PublishResponse, error) {
	if p.store == nil && p.producer == nil {
		return nil, apperrors.New(apperrors.ErrConfiguration, http.StatusServiceUnavailable, errNoSink.Error())
	}
	if len(docs) == 0 {
		return &ingestion.PublishResponse{}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	resp := &ingestion.PublishResponse{Accepted: len(docs)}
	if p.store != nil {
		ids, err := p.store.InsertDocuments(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("storing %d documents: %w", len(docs), err)
		}
		resp.RowIDs = ids
		resp.Stored = true
	}

	if p.producer != nil {
		now := time.Now().UTC()
		events := make([]kafka.Event, len(docs))
		for i, text := range docs {
			seq := p.nextSeq + i
			events[i] = kafka.Event{
				Key:   strconv.Itoa(seq),
				Value: ingestion.CorpusDocument{Seq: seq, Text: text, PublishedAt: now},
			}
		}
		if err := p.producer.PublishBatch(ctx, events); err != nil {
			p.logger.Error("failed to publish corpus batch",
				"documents", len(docs),
				"first_seq", p.nextSeq,
				"stored", resp.Stored,
				"error", err,
			)
			return resp, fmt.Errorf("publishing %d documents: %w", len(docs), err)
		}
		resp.Published = true
	}

	p.nextSeq += len(docs)
	p.logger.Info("corpus batch published",
		"documents", len(docs),
		"stored", resp.Stored,
		"published", resp.Published,
		"next_seq", p.nextSeq,
	)
	return resp, nil
}
