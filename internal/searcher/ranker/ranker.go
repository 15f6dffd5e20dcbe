package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	"github.com/vnadhan/Inverted-Index/internal/indexer/index"
	"github.com/vnadhan/Inverted-Index/internal/indexer/matrix"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// QueryTerm aggregates one distinct query term. IDF is shared by every
// posting of the term, so it is read from the index once.
type QueryTerm struct {
	Term   string
	TermID int
	Count  int
	IDF    float64
	TF     float64
	TFIDF  float64
}

// RankSingleTerm orders a term's postings by descending tf-idf. Ties keep
// posting order, which is ingestion order. The index is not modified.
func RankSingleTerm(postings index.PostingList) []ScoredDoc {
	sorted := make(index.PostingList, len(postings))
	copy(sorted, postings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TFIDF > sorted[j].TFIDF
	})
	result := make([]ScoredDoc, len(sorted))
	for i, p := range sorted {
		result[i] = ScoredDoc{
			DocID: p.DocID(),
			Name:  p.Doc.Name(),
			Score: p.TFIDF,
		}
	}
	return result
}

// Aggregate builds a QueryTerm for every distinct token present in ix, in
// first-occurrence order. The tf denominator is the full token count, so
// tokens unknown to the index still dilute the known ones.
func Aggregate(ix *index.InvertedIndex, tokens []string) []QueryTerm {
	counts := index.CountTerms(tokens)
	terms := make([]QueryTerm, 0, len(counts))
	for _, c := range counts {
		idf, ok := ix.IDF(c.Term)
		if !ok {
			continue
		}
		termID, _ := ix.Terms().ID(c.Term)
		tf := float64(c.Count) / float64(len(tokens))
		terms = append(terms, QueryTerm{
			Term:   c.Term,
			TermID: termID,
			Count:  c.Count,
			IDF:    idf,
			TF:     tf,
			TFIDF:  tf * idf,
		})
	}
	return terms
}

// Candidates returns the ids of every document holding at least one of the
// query terms.
func Candidates(ix *index.InvertedIndex, terms []QueryTerm) *roaring.Bitmap {
	candidates := roaring.New()
	for _, qt := range terms {
		for _, p := range ix.Postings(qt.Term) {
			candidates.Add(uint32(p.DocID()))
		}
	}
	return candidates
}

// RankMultiTerm scores every candidate by the cosine of the angle between the
// query vector and the document's column of m, best first with ties kept in
// document id order. A zero-length vector makes the cosine undefined and
// fails the whole query with ErrDegenerateVector.
func RankMultiTerm(ix *index.InvertedIndex, m *matrix.Matrix, tokens []string) ([]ScoredDoc, error) {
	terms := Aggregate(ix, tokens)
	if len(terms) == 0 {
		return []ScoredDoc{}, nil
	}
	var sum float64
	for _, qt := range terms {
		sum += qt.TFIDF * qt.TFIDF
	}
	queryNorm := math.Sqrt(sum)

	candidates := Candidates(ix, terms)
	result := make([]ScoredDoc, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		docID := int(it.Next())
		denominator := m.Norm(docID) * queryNorm
		if denominator == 0 {
			return nil, fmt.Errorf("cosine similarity for %s: %w", document.Name(docID), apperrors.ErrDegenerateVector)
		}
		var dot float64
		for _, qt := range terms {
			dot += m.Weight(qt.TermID, docID) * qt.TFIDF
		}
		result = append(result, ScoredDoc{
			DocID: docID,
			Name:  document.Name(docID),
			Score: dot / denominator,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	return result, nil
}
