// Package matrix builds the dense term-document weight matrix used by the
// cosine ranker.
package matrix

import (
	"fmt"
	"math"

	"github.com/vnadhan/Inverted-Index/internal/indexer/index"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

// Matrix holds tf-idf weights with rows addressed by term id and columns by
// document id, plus the transpose for per-document access. It is immutable
// once built.
type Matrix struct {
	weights    [][]float64
	transposed [][]float64
	norms      []float64
}

// Build finalizes idf and tf-idf on every posting of ix for a corpus of
// docCount documents and lays the weights out densely. Cells for terms absent
// from a document are 0. An empty corpus yields an empty matrix.
func Build(ix *index.InvertedIndex, docCount int) (*Matrix, error) {
	if docCount == 0 && ix.Len() == 0 {
		return New(nil, 0), nil
	}
	if err := ix.ApplyIDF(docCount); err != nil {
		return nil, fmt.Errorf("finalizing idf: %w", err)
	}
	weights := make([][]float64, ix.Len())
	var buildErr error
	ix.Each(func(termID int, term string, postings index.PostingList) {
		if buildErr != nil {
			return
		}
		row := make([]float64, docCount)
		for _, p := range postings {
			if p.DocID() >= docCount {
				buildErr = fmt.Errorf("posting for %q references %s outside a corpus of %d: %w",
					term, p.Doc.Name(), docCount, apperrors.ErrInternal)
				return
			}
			row[p.DocID()] = p.TFIDF
		}
		weights[termID] = row
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return New(weights, docCount), nil
}

// New wraps a dense weight table of len(weights) terms by docCount documents.
func New(weights [][]float64, docCount int) *Matrix {
	transposed := make([][]float64, docCount)
	for d := range transposed {
		transposed[d] = make([]float64, len(weights))
	}
	for t, row := range weights {
		for d, w := range row {
			transposed[d][t] = w
		}
	}
	norms := make([]float64, docCount)
	for d, col := range transposed {
		norms[d] = norm(col)
	}
	return &Matrix{weights: weights, transposed: transposed, norms: norms}
}

// Weight returns matrix[termID][docID].
func (m *Matrix) Weight(termID, docID int) float64 {
	return m.weights[termID][docID]
}

// Column returns the weight vector of a document over all terms. The slice
// must not be modified.
func (m *Matrix) Column(docID int) []float64 {
	return m.transposed[docID]
}

// Norm returns the Euclidean length of a document's weight vector.
func (m *Matrix) Norm(docID int) float64 {
	return m.norms[docID]
}

func (m *Matrix) Terms() int {
	return len(m.weights)
}

func (m *Matrix) Documents() int {
	return len(m.transposed)
}

func norm(v []float64) float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}
