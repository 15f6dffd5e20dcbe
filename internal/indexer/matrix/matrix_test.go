package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	"github.com/vnadhan/Inverted-Index/internal/indexer/index"
	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
	"github.com/vnadhan/Inverted-Index/internal/indexer/weighting"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

func buildIndex(t *testing.T, texts ...string) (*document.Store, *index.InvertedIndex) {
	t.Helper()
	store := document.NewStore()
	ix := index.New(weighting.Document)
	for _, text := range texts {
		doc := store.Add(text)
		counts := index.CountTerms(tokenizer.Tokenize(text))
		require.NoError(t, store.SetMaxTermFrequency(doc.ID, counts.Max()))
		require.NoError(t, ix.Add(doc, counts))
	}
	return store, ix
}

func TestBuild(t *testing.T) {
	store, ix := buildIndex(t, "the cat sat", "the dog sat", "the cat ran")
	m, err := Build(ix, store.Len())
	require.NoError(t, err)

	assert.Equal(t, 5, m.Terms())
	assert.Equal(t, 3, m.Documents())

	catID, ok := ix.Terms().ID("cat")
	require.True(t, ok)
	want := (1.0 / 3.0) * (1 + math.Log(1.5))
	assert.InDelta(t, want, m.Weight(catID, 0), 1e-12)
	assert.Equal(t, 0.0, m.Weight(catID, 1))
	assert.InDelta(t, want, m.Weight(catID, 2), 1e-12)

	theID, _ := ix.Terms().ID("the")
	assert.InDelta(t, 1.0/3.0, m.Weight(theID, 1), 1e-12, "idf of a term in every document is 1")

	for termID := 0; termID < m.Terms(); termID++ {
		for docID := 0; docID < m.Documents(); docID++ {
			assert.Equal(t, m.Weight(termID, docID), m.Column(docID)[termID])
		}
	}
}

func TestBuildStampsPostings(t *testing.T) {
	store, ix := buildIndex(t, "a b", "a c")
	_, err := Build(ix, store.Len())
	require.NoError(t, err)

	for _, p := range ix.Postings("b") {
		assert.InDelta(t, 1+math.Log(2), p.IDF, 1e-12)
		assert.InDelta(t, p.TF*p.IDF, p.TFIDF, 1e-12)
	}
}

func TestNorm(t *testing.T) {
	m := New([][]float64{
		{3, 0},
		{4, 0},
	}, 2)
	assert.Equal(t, 5.0, m.Norm(0))
	assert.Equal(t, 0.0, m.Norm(1))
	assert.Equal(t, []float64{3, 4}, m.Column(0))
}

func TestBuildEmptyCorpus(t *testing.T) {
	m, err := Build(index.New(weighting.Document), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Terms())
	assert.Equal(t, 0, m.Documents())
}

func TestBuildRejectsShortCorpus(t *testing.T) {
	_, ix := buildIndex(t, "a b", "c")
	_, err := Build(ix, 1)
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
}
