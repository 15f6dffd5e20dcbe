// Command ingestion publishes corpus documents to the sinks the searcher
// batch-loads from: the Kafka corpus topic and the Postgres documents table.
//
// By default it reads a corpus file (one document per non-empty line),
// publishes it in batches and exits. With -serve it instead accepts
// documents over POST /api/v1/documents.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml] [-file corpus.txt] [-kafka] [-postgres] [-serve]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnadhan/Inverted-Index/internal/ingestion/handler"
	"github.com/vnadhan/Inverted-Index/internal/ingestion/publisher"
	"github.com/vnadhan/Inverted-Index/internal/ingestion/source"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	"github.com/vnadhan/Inverted-Index/pkg/kafka"
	"github.com/vnadhan/Inverted-Index/pkg/logger"
	"github.com/vnadhan/Inverted-Index/pkg/metrics"
	"github.com/vnadhan/Inverted-Index/pkg/middleware"
	"github.com/vnadhan/Inverted-Index/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	file := flag.String("file", "", "corpus file to publish (defaults to corpus.path)")
	toKafka := flag.Bool("kafka", true, "publish to the Kafka corpus topic")
	toPostgres := flag.Bool("postgres", false, "insert into the Postgres documents table")
	batchSize := flag.Int("batch", 500, "documents per publish batch")
	serve := flag.Bool("serve", false, "accept documents over HTTP instead of reading a file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store publisher.DocumentStore
	if *toPostgres {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
		store = db
		slog.Info("connected to postgres", "database", cfg.Postgres.Database)
	}

	var producer publisher.EventPublisher
	if *toKafka {
		p := kafka.NewOrderedProducer(cfg.Kafka, cfg.Kafka.Topics.Corpus)
		defer p.Close()
		producer = p
		slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.Corpus)
	}

	pub := publisher.New(store, producer, 0)

	if *serve {
		if err := runServer(ctx, cfg, pub); err != nil {
			slog.Error("ingestion server error", "error", err)
			os.Exit(1)
		}
		return
	}

	path := *file
	if path == "" {
		path = cfg.Corpus.Path
	}
	total, err := publishFile(ctx, pub, path, *batchSize)
	if err != nil {
		slog.Error("publishing corpus failed", "file", path, "published", total, "error", err)
		os.Exit(1)
	}
	slog.Info("corpus published", "file", path, "documents", total)
}

// publishFile sends the corpus in batches and returns how many documents
// were published before any error.
func publishFile(ctx context.Context, pub *publisher.Publisher, path string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	total := 0
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pub.Publish(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}
	err := source.NewFile(path).Each(ctx, func(text string) error {
		batch = append(batch, text)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, flush()
}

func runServer(ctx context.Context, cfg *config.Config, pub *publisher.Publisher) error {
	h := handler.New(pub)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", h.Publish)
	mux.HandleFunc("GET /health/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"up"}`)
	})

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Metrics(m),
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("ingestion service stopped")
	return nil
}
