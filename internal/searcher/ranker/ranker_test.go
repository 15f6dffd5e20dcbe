package ranker

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	"github.com/vnadhan/Inverted-Index/internal/indexer/index"
	"github.com/vnadhan/Inverted-Index/internal/indexer/matrix"
	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
	"github.com/vnadhan/Inverted-Index/internal/indexer/weighting"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

func build(t testing.TB, strategy weighting.Strategy, texts ...string) (*index.InvertedIndex, *matrix.Matrix) {
	t.Helper()
	store := document.NewStore()
	ix := index.New(strategy)
	for _, text := range texts {
		doc := store.Add(text)
		counts := index.CountTerms(tokenizer.Tokenize(text))
		if len(counts) == 0 {
			continue
		}
		require.NoError(t, store.SetMaxTermFrequency(doc.ID, counts.Max()))
		require.NoError(t, ix.Add(doc, counts))
	}
	m, err := matrix.Build(ix, store.Len())
	require.NoError(t, err)
	return ix, m
}

func names(docs []ScoredDoc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestRankSingleTermTieKeepsIngestionOrder(t *testing.T) {
	ix, _ := build(t, weighting.Document, "the cat sat", "the dog sat", "the cat ran")

	got := RankSingleTerm(ix.Postings("cat"))
	assert.Equal(t, []string{"document0", "document2"}, names(got))
	assert.Equal(t, got[0].Score, got[1].Score)
}

func TestRankSingleTermSortsDescending(t *testing.T) {
	ix, _ := build(t, weighting.Document, "cat dog dog dog", "cat cat", "cat dog", "bird")

	got := RankSingleTerm(ix.Postings("cat"))
	assert.Equal(t, []string{"document1", "document2", "document0"}, names(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}

	postings := ix.Postings("cat")
	assert.Equal(t, 0, postings[0].DocID(), "ranking must not reorder the index")
}

func TestRankSingleTermAbsent(t *testing.T) {
	ix, _ := build(t, weighting.Document, "the cat sat")
	got := RankSingleTerm(ix.Postings("zebra"))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregate(t *testing.T) {
	ix, _ := build(t, weighting.Document, "the cat sat", "the dog sat", "the cat ran")

	terms := Aggregate(ix, []string{"cat", "zebra", "cat", "dog"})
	require.Len(t, terms, 2)
	assert.Equal(t, "cat", terms[0].Term)
	assert.Equal(t, 2, terms[0].Count)
	assert.InDelta(t, 0.5, terms[0].TF, 1e-12)
	assert.InDelta(t, 1+math.Log(1.5), terms[0].IDF, 1e-12)
	assert.Equal(t, "dog", terms[1].Term)
	assert.InDelta(t, 0.25, terms[1].TF, 1e-12)
	assert.InDelta(t, 0.25*(1+math.Log(3)), terms[1].TFIDF, 1e-12)
}

func TestRankMultiTermUnionOfCandidates(t *testing.T) {
	ix, m := build(t, weighting.Document, "the cat sat", "the dog sat", "the cat ran")

	got, err := RankMultiTerm(ix, m, []string{"cat", "dog"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"document0", "document1", "document2"}, names(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	for _, d := range got {
		assert.Greater(t, d.Score, 0.0)
		assert.LessOrEqual(t, d.Score, 1.0+1e-12)
	}
}

func TestRankMultiTermPrefersDocumentsMatchingMoreTerms(t *testing.T) {
	ix, m := build(t, weighting.Document,
		"the cat sat",
		"the dog sat",
		"the cat and the dog",
		"a bird flew",
	)

	got, err := RankMultiTerm(ix, m, []string{"cat", "dog"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "document2", got[0].Name)
}

func TestRankMultiTermCosineValue(t *testing.T) {
	ix, m := build(t, weighting.Document, "a b", "a c")

	got, err := RankMultiTerm(ix, m, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	idfB := 1 + math.Log(2)
	q := []float64{0.5, 0.5 * idfB}
	d0 := []float64{0.5, 0.5 * idfB}
	cos := func(a, b []float64) float64 {
		var dot, na, nb float64
		for i := range a {
			dot += a[i] * b[i]
			na += a[i] * a[i]
			nb += b[i] * b[i]
		}
		return dot / (math.Sqrt(na) * math.Sqrt(nb))
	}
	assert.Equal(t, 0, got[0].DocID)
	assert.InDelta(t, cos(q, d0), got[0].Score, 1e-12)
	assert.InDelta(t, 1.0, got[0].Score, 1e-12)
	assert.Equal(t, 1, got[1].DocID)

	// document1's vector also carries c, so its norm covers all its terms
	d1full := []float64{0.5, 0, 0.5 * (1 + math.Log(2))}
	qfull := []float64{q[0], q[1], 0}
	assert.InDelta(t, cos(qfull, d1full), got[1].Score, 1e-12)
}

func TestRankMultiTermScalingInvariance(t *testing.T) {
	ix, m := build(t, weighting.Augmented,
		"search engines rank documents",
		"vector space models rank search results",
		"cosine similarity compares vector angles",
		"engines and models",
	)

	base, err := RankMultiTerm(ix, m, []string{"search", "vector", "rank"})
	require.NoError(t, err)
	scaled, err := RankMultiTerm(ix, m, []string{"search", "search", "search", "vector", "vector", "vector", "rank", "rank", "rank"})
	require.NoError(t, err)
	assert.Equal(t, names(base), names(scaled))
}

func TestRankMultiTermAllTermsAbsent(t *testing.T) {
	ix, m := build(t, weighting.Document, "the cat sat")
	got, err := RankMultiTerm(ix, m, []string{"zebra", "yak"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankMultiTermDegenerateDocument(t *testing.T) {
	ix, _ := build(t, weighting.Document, "a b", "a c")
	zero := matrix.New([][]float64{
		{0, 0},
		{0, 0},
		{0, 0},
	}, 2)

	_, err := RankMultiTerm(ix, zero, []string{"a", "b"})
	assert.True(t, errors.Is(err, apperrors.ErrDegenerateVector))
}

func TestCandidatesAscending(t *testing.T) {
	ix, _ := build(t, weighting.Document, "x", "y", "x y", "z", "y")
	terms := Aggregate(ix, []string{"y", "x"})
	assert.Equal(t, []uint32{0, 1, 2, 4}, Candidates(ix, terms).ToArray())
}

func BenchmarkRankMultiTerm(b *testing.B) {
	texts := make([]string, 0, 500)
	words := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	for i := 0; i < 500; i++ {
		texts = append(texts, words[i%8]+" "+words[(i+3)%8]+" "+words[(i*5)%8]+" documents")
	}
	ix, m := build(b, weighting.Document, texts...)
	query := []string{"search", "ranking", "engine"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RankMultiTerm(ix, m, query); err != nil {
			b.Fatal(err)
		}
	}
}
