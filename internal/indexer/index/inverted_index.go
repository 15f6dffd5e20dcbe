package index

import (
	"fmt"

	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	"github.com/vnadhan/Inverted-Index/internal/indexer/weighting"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

// InvertedIndex maps each term to its postings. It holds at most one posting
// per (term, document) pair, so a term's document frequency is the length of
// its posting list. Mutation is single-threaded; once the engine is READY the
// index is only read.
type InvertedIndex struct {
	postings map[string]PostingList
	terms    *TermTable
	strategy weighting.Strategy
}

func New(strategy weighting.Strategy) *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]PostingList),
		terms:    NewTermTable(),
		strategy: strategy,
	}
}

// Add creates a posting for every entry of counts, weighted with the index's
// strategy. Either all postings of the document are added or none are.
func (ix *InvertedIndex) Add(doc *document.Document, counts TermCounts) error {
	if len(counts) == 0 {
		return fmt.Errorf("indexing %s: %w", doc.Name(), apperrors.ErrEmptyDocument)
	}
	created := make([]*Posting, len(counts))
	for i, c := range counts {
		if last := ix.last(c.Term); last != nil && last.DocID() == doc.ID {
			return fmt.Errorf("%s already has a posting for %q: %w", doc.Name(), c.Term, apperrors.ErrInvalidInput)
		}
		tf, err := weighting.TermFrequency(ix.strategy, c.Count, doc)
		if err != nil {
			return fmt.Errorf("weighting %q in %s: %w", c.Term, doc.Name(), err)
		}
		created[i] = &Posting{
			Doc:          doc,
			RawFrequency: c.Count,
			TF:           tf,
		}
	}
	for i, c := range counts {
		ix.terms.Assign(c.Term)
		ix.postings[c.Term] = append(ix.postings[c.Term], created[i])
	}
	return nil
}

func (ix *InvertedIndex) last(term string) *Posting {
	list := ix.postings[term]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// Postings returns the term's posting list, or nil if the term is unknown.
// Callers must not modify the returned slice.
func (ix *InvertedIndex) Postings(term string) PostingList {
	return ix.postings[term]
}

// DocumentFrequency is the number of documents containing term.
func (ix *InvertedIndex) DocumentFrequency(term string) int {
	return len(ix.postings[term])
}

// IDF returns the idf shared by all postings of term.
func (ix *InvertedIndex) IDF(term string) (float64, bool) {
	list := ix.postings[term]
	if len(list) == 0 {
		return 0, false
	}
	return list[0].IDF, true
}

func (ix *InvertedIndex) Terms() *TermTable {
	return ix.terms
}

func (ix *InvertedIndex) Strategy() weighting.Strategy {
	return ix.strategy
}

// Len returns the number of distinct terms.
func (ix *InvertedIndex) Len() int {
	return ix.terms.Len()
}

// Each visits every term in term-id order.
func (ix *InvertedIndex) Each(fn func(termID int, term string, postings PostingList)) {
	for id := 0; id < ix.terms.Len(); id++ {
		term := ix.terms.Term(id)
		fn(id, term, ix.postings[term])
	}
}

// ApplyIDF stamps every posting with its term's idf over a corpus of n
// documents and derives tf-idf. It runs once, when the index is finalized.
func (ix *InvertedIndex) ApplyIDF(n int) error {
	if n <= 0 {
		return fmt.Errorf("applying idf to an empty corpus: %w", apperrors.ErrInvalidInput)
	}
	for _, list := range ix.postings {
		if len(list) > n {
			return fmt.Errorf("document frequency %d exceeds corpus size %d: %w", len(list), n, apperrors.ErrInternal)
		}
		idf := weighting.IDF(n, len(list))
		for _, p := range list {
			p.IDF = idf
			p.TFIDF = p.TF * idf
		}
	}
	return nil
}
