// Package weighting computes term frequency under the two supported
// strategies and inverse document frequency.
package weighting

import (
	"fmt"
	"math"
	"strings"

	"github.com/vnadhan/Inverted-Index/internal/indexer/document"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

// Strategy selects how raw term counts are normalised. It is fixed for the
// lifetime of an engine.
type Strategy int

const (
	// Document divides the raw count by the document's word count.
	Document Strategy = iota
	// Augmented scales the raw count against the document's most frequent
	// term: 0.5 + 0.5*raw/max.
	Augmented
)

func (s Strategy) String() string {
	switch s {
	case Document:
		return "doc"
	case Augmented:
		return "aug"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "doc" or "aug" in any case.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "doc":
		return Document, nil
	case "aug":
		return Augmented, nil
	default:
		return 0, fmt.Errorf("unknown term frequency strategy %q, want doc or aug: %w", name, apperrors.ErrConfiguration)
	}
}

// TermFrequency returns the tf of a term occurring raw times in doc.
// Augmented weighting fails with ErrNotReady until the document's max term
// frequency has been recorded.
func TermFrequency(s Strategy, raw int, doc *document.Document) (float64, error) {
	switch s {
	case Document:
		if doc.WordCount == 0 {
			return 0, fmt.Errorf("%s has no words: %w", doc.Name(), apperrors.ErrEmptyDocument)
		}
		return float64(raw) / float64(doc.WordCount), nil
	case Augmented:
		maxFreq, ok := doc.MaxTermFrequency()
		if !ok {
			return 0, fmt.Errorf("augmented frequency for %s before its max term frequency is known: %w", doc.Name(), apperrors.ErrNotReady)
		}
		return 0.5 + 0.5*(float64(raw)/float64(maxFreq)), nil
	default:
		return 0, fmt.Errorf("term frequency with %s: %w", s, apperrors.ErrConfiguration)
	}
}

// IDF returns 1 + ln(n/df) for a corpus of n documents where df of them
// contain the term. It is at least 1 whenever 0 < df <= n.
func IDF(n, df int) float64 {
	return 1 + math.Log(float64(n)/float64(df))
}
