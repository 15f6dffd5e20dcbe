package indexer

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
	"github.com/vnadhan/Inverted-Index/internal/searcher/parser"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
	"github.com/vnadhan/Inverted-Index/pkg/metrics"
)

var catCorpus = []string{"the cat sat", "the dog sat", "the cat ran"}

func newEngine(t testing.TB, strategy string, docs ...string) *Engine {
	t.Helper()
	e, err := NewEngine(config.EngineConfig{Strategy: strategy}, nil)
	require.NoError(t, err)
	for _, d := range docs {
		if _, err := e.Ingest(d); err != nil && !IsSkippable(err) {
			t.Fatalf("ingesting %q: %v", d, err)
		}
	}
	require.NoError(t, e.Finalize())
	return e
}

func TestNewEngineRejectsUnknownStrategy(t *testing.T) {
	_, err := NewEngine(config.EngineConfig{Strategy: "bm25"}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestScenarioSingleTerm(t *testing.T) {
	e := newEngine(t, "doc", catCorpus...)

	got, err := e.Query("cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"document0", "document2"}, got)
}

func TestScenarioMultiTermUnion(t *testing.T) {
	e := newEngine(t, "doc", catCorpus...)

	got, err := e.Query("cat dog")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"document0", "document1", "document2"}, got)

	ranked, err := e.Rank(parser.Parse("cat dog"))
	require.NoError(t, err)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestScenarioAbsentTerm(t *testing.T) {
	e := newEngine(t, "doc", catCorpus...)

	for _, q := range []string{"zebra", "zebra yak", "", "?!"} {
		got, err := e.Query(q)
		require.NoError(t, err, q)
		assert.NotNil(t, got, q)
		assert.Empty(t, got, q)
	}
}

func TestScenarioAugmented(t *testing.T) {
	e := newEngine(t, "aug", "a a a b", "c")

	doc, err := e.Document(0)
	require.NoError(t, err)
	maxTF, ok := doc.MaxTermFrequency()
	require.True(t, ok)
	assert.Equal(t, 3, maxTF)

	p := e.index.Postings("b")
	require.Len(t, p, 1)
	assert.InDelta(t, 0.6667, p[0].TF, 1e-4)
}

func TestQueryIsCaseInsensitive(t *testing.T) {
	e := newEngine(t, "doc", catCorpus...)

	lower, err := e.Query("cat")
	require.NoError(t, err)
	upper, err := e.Query("CAT!")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestRepeatedTermUsesCosineRanking(t *testing.T) {
	e := newEngine(t, "doc", catCorpus...)

	plan := parser.Parse("cat cat")
	assert.Equal(t, parser.QueryMulti, plan.Type)
	got, err := e.Query("cat cat")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"document0", "document2"}, got)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	corpus := []string{
		"Distributed search systems shard the index.",
		"An inverted index maps terms to postings.",
		"Cosine similarity ranks documents against a query vector.",
		"Search engines weight terms with tf-idf.",
		"Postings lists record term frequency per document.",
	}
	queries := []string{"index", "search index", "term frequency postings", "query vector search"}
	for _, strategy := range []string{"doc", "aug"} {
		a := newEngine(t, strategy, corpus...)
		b := newEngine(t, strategy, corpus...)
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
		for _, q := range queries {
			ra, err := a.Query(q)
			require.NoError(t, err)
			rb, err := b.Query(q)
			require.NoError(t, err)
			assert.Equal(t, ra, rb, "%s/%s", strategy, q)
		}
	}
}

func TestFingerprintDependsOnCorpusAndStrategy(t *testing.T) {
	base := newEngine(t, "doc", catCorpus...)
	aug := newEngine(t, "aug", catCorpus...)
	other := newEngine(t, "doc", "the cat sat", "the dog sat")

	assert.NotEmpty(t, base.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), aug.Fingerprint())
	assert.NotEqual(t, base.Fingerprint(), other.Fingerprint())
}

func TestPhaseTransitions(t *testing.T) {
	e, err := NewEngine(config.EngineConfig{Strategy: "doc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseIngesting, e.Phase())
	assert.Equal(t, "", e.Fingerprint())

	_, err = e.Query("cat")
	assert.True(t, errors.Is(err, apperrors.ErrNotReady))
	_, err = e.Document(0)
	assert.True(t, errors.Is(err, apperrors.ErrNotReady))

	id, err := e.Ingest("the cat sat")
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	require.NoError(t, e.Finalize())
	assert.Equal(t, PhaseReady, e.Phase())
	assert.Equal(t, "ready", e.Phase().String())

	_, err = e.Ingest("late document")
	assert.True(t, errors.Is(err, apperrors.ErrPhase))
	assert.True(t, errors.Is(e.Finalize(), apperrors.ErrPhase))
	assert.Equal(t, 1, e.Stats().Documents)
}

func TestEmptyDocumentIsKeptWithoutPostings(t *testing.T) {
	e, err := NewEngine(config.EngineConfig{Strategy: "aug"}, nil)
	require.NoError(t, err)

	_, err = e.Ingest("the cat sat")
	require.NoError(t, err)
	id, err := e.Ingest("... --- ...")
	assert.True(t, errors.Is(err, apperrors.ErrEmptyDocument))
	assert.True(t, IsSkippable(err))
	assert.Equal(t, 1, id)
	id, err = e.Ingest("the cat ran")
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	require.NoError(t, e.Finalize())

	got, err := e.Query("cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"document0", "document2"}, got)

	got, err = e.Query("the ran")
	require.NoError(t, err)
	assert.Equal(t, "document2", got[0])

	stats := e.Stats()
	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, "aug", stats.Strategy)
}

func TestDocumentFrequencyProperty(t *testing.T) {
	corpus := make([]string, 0, 30)
	words := []string{"red", "green", "blue", "cyan", "magenta"}
	for i := 0; i < 30; i++ {
		corpus = append(corpus, fmt.Sprintf("%s %s %s", words[i%5], words[(i*2)%5], words[(i*3+1)%5]))
	}
	e := newEngine(t, "doc", corpus...)

	for _, w := range words {
		want := 0
		for _, text := range corpus {
			for _, tok := range tokenizer.Tokenize(text) {
				if tok == w {
					want++
					break
				}
			}
		}
		assert.Equal(t, want, e.DocumentFrequency(w), w)
		for _, p := range e.index.Postings(w) {
			assert.Greater(t, p.IDF, 0.0)
		}
	}
}

func TestEmptyCorpusFinalizes(t *testing.T) {
	e := newEngine(t, "doc")
	got, err := e.Query("anything at all")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentQueriesAfterReady(t *testing.T) {
	e := newEngine(t, "doc", catCorpus...)
	want, err := e.Query("cat dog sat")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := e.Query("cat dog sat")
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}

func TestEngineRecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e, err := NewEngine(config.EngineConfig{Strategy: "doc"}, m)
	require.NoError(t, err)

	for _, d := range append(catCorpus, "!!!") {
		_, _ = e.Ingest(d)
	}
	require.NoError(t, e.Finalize())

	assert.Equal(t, 4.0, testutil.ToFloat64(m.DocsIngestedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocsSkippedTotal.WithLabelValues("empty")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.IndexTerms))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.IndexDocuments))
}

func BenchmarkEngineQuery(b *testing.B) {
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	corpus := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		corpus = append(corpus, fmt.Sprintf("document about %s and %s covering %s in production",
			terms[i%len(terms)], terms[(i+1)%len(terms)], terms[(i+3)%len(terms)]))
	}
	e := newEngine(b, "doc", corpus...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Query(terms[i%len(terms)] + " " + terms[(i+2)%len(terms)]); err != nil {
			b.Fatal(err)
		}
	}
}
