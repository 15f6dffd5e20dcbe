package indexer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	"github.com/vnadhan/Inverted-Index/internal/indexer/index"
	"github.com/vnadhan/Inverted-Index/internal/indexer/matrix"
	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
	"github.com/vnadhan/Inverted-Index/internal/indexer/weighting"
	"github.com/vnadhan/Inverted-Index/internal/searcher/parser"
	"github.com/vnadhan/Inverted-Index/internal/searcher/ranker"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
	"github.com/vnadhan/Inverted-Index/pkg/metrics"
)

// Phase is the engine lifecycle. The only transition is
// PhaseIngesting -> PhaseReady, taken once by Finalize.
type Phase int32

const (
	PhaseIngesting Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIngesting:
		return "ingesting"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

type Stats struct {
	Documents   int    `json:"documents"`
	Terms       int    `json:"terms"`
	Skipped     int    `json:"skipped"`
	Strategy    string `json:"strategy"`
	Phase       string `json:"phase"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Engine owns the document store, inverted index and term-document matrix.
// Ingest and Finalize are serialized by mu. Once the phase is READY nothing
// is mutated again, so queries read without locking.
type Engine struct {
	strategy weighting.Strategy
	store    *document.Store
	index    *index.InvertedIndex
	matrix   *matrix.Matrix
	phase    atomic.Int32
	mu       sync.Mutex

	digest      hash.Hash
	fingerprint string
	skipped     int

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates an engine in the INGESTING phase. m may be nil.
func NewEngine(cfg config.EngineConfig, m *metrics.Metrics) (*Engine, error) {
	strategy, err := weighting.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return &Engine{
		strategy: strategy,
		store:    document.NewStore(),
		index:    index.New(strategy),
		digest:   sha256.New(),
		metrics:  m,
		logger:   slog.Default().With("component", "indexer"),
	}, nil
}

// Ingest adds a document and returns its id. A document without usable
// terms is still stored, contributes no postings, and is reported with
// ErrEmptyDocument alongside its id. Ingesting after Finalize fails with
// ErrPhase.
func (e *Engine) Ingest(text string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Phase() != PhaseIngesting {
		return -1, fmt.Errorf("ingesting into a finalized index: %w", apperrors.ErrPhase)
	}

	doc := e.store.Add(text)
	e.writeDigest(text)
	if e.metrics != nil {
		e.metrics.DocsIngestedTotal.Inc()
	}

	counts := index.CountTerms(tokenizer.Tokenize(text))
	if len(counts) == 0 {
		e.skip(doc, "empty")
		return doc.ID, fmt.Errorf("%s: %w", doc.Name(), apperrors.ErrEmptyDocument)
	}
	if err := e.store.SetMaxTermFrequency(doc.ID, counts.Max()); err != nil {
		e.skip(doc, "weighting")
		return doc.ID, fmt.Errorf("recording max term frequency: %w", err)
	}
	if err := e.index.Add(doc, counts); err != nil {
		e.skip(doc, "weighting")
		return doc.ID, fmt.Errorf("indexing %s: %w", doc.Name(), err)
	}

	e.logger.Debug("document indexed",
		"doc", doc.Name(),
		"word_count", doc.WordCount,
		"distinct_terms", len(counts),
	)
	return doc.ID, nil
}

func (e *Engine) skip(doc *document.Document, reason string) {
	e.skipped++
	if e.metrics != nil {
		e.metrics.DocsSkippedTotal.WithLabelValues(reason).Inc()
	}
	e.logger.Warn("document contributes no postings",
		"doc", doc.Name(),
		"reason", reason,
	)
}

func (e *Engine) writeDigest(text string) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(text)))
	e.digest.Write(size[:])
	e.digest.Write([]byte(text))
}

// Finalize computes idf over the complete corpus, builds the term-document
// matrix and moves the engine to READY. It succeeds exactly once.
func (e *Engine) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Phase() == PhaseReady {
		return fmt.Errorf("finalizing twice: %w", apperrors.ErrPhase)
	}

	start := time.Now()
	m, err := matrix.Build(e.index, e.store.Len())
	if err != nil {
		return fmt.Errorf("building term-document matrix: %w", err)
	}
	e.matrix = m
	e.digest.Write([]byte(e.strategy.String()))
	e.fingerprint = hex.EncodeToString(e.digest.Sum(nil)[:12])
	e.phase.Store(int32(PhaseReady))

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.FinalizeDuration.Observe(elapsed.Seconds())
		e.metrics.IndexTerms.Set(float64(e.index.Len()))
		e.metrics.IndexDocuments.Set(float64(e.store.Len()))
	}
	e.logger.Info("index finalized",
		"documents", e.store.Len(),
		"terms", e.index.Len(),
		"skipped", e.skipped,
		"strategy", e.strategy.String(),
		"fingerprint", e.fingerprint,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

func (e *Engine) Ready() bool {
	return e.Phase() == PhaseReady
}

func (e *Engine) Strategy() weighting.Strategy {
	return e.strategy
}

// Rank answers a parsed query. Single-term plans sort the term's postings by
// tf-idf; multi-term plans rank the union of the terms' documents by cosine
// similarity. Unknown terms give an empty ranking, not an error.
func (e *Engine) Rank(plan *parser.QueryPlan) ([]ranker.ScoredDoc, error) {
	if !e.Ready() {
		return nil, fmt.Errorf("query before the index is finalized: %w", apperrors.ErrNotReady)
	}
	switch plan.Type {
	case parser.QuerySingle:
		return ranker.RankSingleTerm(e.index.Postings(plan.Terms[0])), nil
	case parser.QueryMulti:
		return ranker.RankMultiTerm(e.index, e.matrix, plan.Terms)
	default:
		return []ranker.ScoredDoc{}, nil
	}
}

// Query ranks text and returns the document names in rank order, e.g.
// ["document0", "document2"].
func (e *Engine) Query(text string) ([]string, error) {
	ranked, err := e.Rank(parser.Parse(text))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ranked))
	for i, d := range ranked {
		names[i] = d.Name
	}
	return names, nil
}

// DocumentFrequency returns how many documents contain the normalized term.
func (e *Engine) DocumentFrequency(term string) int {
	if !e.Ready() {
		return 0
	}
	return e.index.DocumentFrequency(term)
}

func (e *Engine) Document(id int) (*document.Document, error) {
	if !e.Ready() {
		return nil, fmt.Errorf("document lookup before the index is finalized: %w", apperrors.ErrNotReady)
	}
	return e.store.Get(id)
}

// Stats is safe to call in any phase.
func (e *Engine) Stats() Stats {
	if !e.Ready() {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	return Stats{
		Documents:   e.store.Len(),
		Terms:       e.index.Len(),
		Skipped:     e.skipped,
		Strategy:    e.strategy.String(),
		Phase:       e.Phase().String(),
		Fingerprint: e.fingerprint,
	}
}

// Fingerprint identifies the finalized corpus and strategy. It is empty
// before Finalize.
func (e *Engine) Fingerprint() string {
	if !e.Ready() {
		return ""
	}
	return e.fingerprint
}

// IsSkippable reports whether an Ingest error only concerns that one
// document, so a batch load can continue.
func IsSkippable(err error) bool {
	return errors.Is(err, apperrors.ErrEmptyDocument) ||
		errors.Is(err, apperrors.ErrNotReady) ||
		errors.Is(err, apperrors.ErrInvalidInput)
}
