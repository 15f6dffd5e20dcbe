package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnadhan/Inverted-Index/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers analytics events and ships them to Kafka in batches,
// flushing when a batch fills up or the flush interval passes. Search events
// are also fed to an in-process Aggregator when one is attached. Tracking
// never blocks the query path: a full buffer drops the event.
type Collector struct {
	publisher     Publisher
	aggregator    *Aggregator
	eventCh       chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
	started       atomic.Bool

	mu     sync.RWMutex
	closed bool
}

// NewCollector accepts a nil publisher, in which case events only reach the
// aggregator.
func NewCollector(publisher Publisher, aggregator *Aggregator, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher:     publisher,
		aggregator:    aggregator,
		eventCh:       make(chan kafka.Event, bufferSize),
		batchSize:     100,
		flushInterval: time.Second,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the flush loop. It returns at once; Close waits for the
// loop to publish what is left.
func (c *Collector) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"kafka", c.publisher != nil,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if c.publisher != nil {
			if err := c.publisher.PublishBatch(ctx, batch); err != nil {
				c.logger.Error("analytics batch dropped", "events", len(batch), "error", err)
			}
		}
		batch = batch[:0]
	}
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				flush(flushCtx)
				cancel()
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			for drained := false; !drained; {
				select {
				case event, ok := <-c.eventCh:
					if !ok {
						drained = true
						break
					}
					batch = append(batch, event)
				default:
					drained = true
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			return
		}
	}
}

// TrackSearch records a search event in the aggregator and queues it for
// Kafka.
func (c *Collector) TrackSearch(event SearchEvent) {
	if c.aggregator != nil {
		c.aggregator.Record(event)
	}
	c.enqueue("search", event)
}

// TrackCorpus records the corpus load summary in the aggregator and queues
// it for Kafka.
func (c *Collector) TrackCorpus(event CorpusEvent) {
	if c.aggregator != nil {
		c.aggregator.RecordCorpus(event)
	}
	c.enqueue("corpus", event)
}

func (c *Collector) enqueue(key string, value any) {
	if c.publisher == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- kafka.Event{Key: key, Value: value}:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the final flush. Events tracked
// after Close are dropped.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	if c.started.Load() {
		<-c.done
	}
}
