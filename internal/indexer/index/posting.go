package index

import (
	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
)

// Posting associates one term with one document. The index owns postings;
// Doc is a non-owning reference into the document store.
type Posting struct {
	Doc          *document.Document
	RawFrequency int
	TF           float64
	IDF          float64
	TFIDF        float64
}

// DocID returns the id of the referenced document.
func (p *Posting) DocID() int {
	return p.Doc.ID
}

// PostingList holds a term's postings in ingestion order.
type PostingList []*Posting

// TermCount is one entry of a per-document term histogram.
type TermCount struct {
	Term  string
	Count int
}

// TermCounts is a per-document term histogram in first-occurrence order.
type TermCounts []TermCount

// CountTerms builds the histogram of tokens, keeping the order in which each
// term first appears so term ids are assigned deterministically.
func CountTerms(tokens []string) TermCounts {
	counts := make(TermCounts, 0, len(tokens))
	pos := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		if i, ok := pos[tok]; ok {
			counts[i].Count++
			continue
		}
		pos[tok] = len(counts)
		counts = append(counts, TermCount{Term: tok, Count: 1})
	}
	return counts
}

// Max returns the highest count, or 0 for an empty histogram.
func (tc TermCounts) Max() int {
	max := 0
	for _, c := range tc {
		if c.Count > max {
			max = c.Count
		}
	}
	return max
}
