// Package document holds per-document metadata keyed by a dense integer id
// assigned in ingestion order starting at 0.
package document

import (
	"fmt"

	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
)

// Document is immutable once created, except for the max term frequency
// which is set exactly once during ingestion.
type Document struct {
	ID        int
	Text      string
	WordCount int

	maxTermFrequency int
}

// Name renders the id the way query results print it, e.g. "document0".
func (d *Document) Name() string {
	return Name(d.ID)
}

// MaxTermFrequency returns the raw frequency of the document's most frequent
// term and whether it has been set yet.
func (d *Document) MaxTermFrequency() (int, bool) {
	return d.maxTermFrequency, d.maxTermFrequency > 0
}

// Name renders a document id.
func Name(id int) string {
	return fmt.Sprintf("document%d", id)
}

// Store owns every Document. It is not safe for concurrent mutation; the
// engine serialises ingestion.
type Store struct {
	docs []*Document
}

func NewStore() *Store {
	return &Store{docs: make([]*Document, 0, 64)}
}

// Add creates the next document. The word count is the length of the raw
// split, so it may include an empty leading piece.
func (s *Store) Add(text string) *Document {
	doc := &Document{
		ID:        len(s.docs),
		Text:      text,
		WordCount: len(tokenizer.Split(text)),
	}
	s.docs = append(s.docs, doc)
	return doc
}

// SetMaxTermFrequency records the most frequent term's count for id. It may
// be called once per document and count must be positive.
func (s *Store) SetMaxTermFrequency(id int, count int) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("max term frequency for %s must be positive, got %d: %w", doc.Name(), count, apperrors.ErrInvalidInput)
	}
	if _, set := doc.MaxTermFrequency(); set {
		return fmt.Errorf("max term frequency for %s already set: %w", doc.Name(), apperrors.ErrPhase)
	}
	doc.maxTermFrequency = count
	return nil
}

func (s *Store) Get(id int) (*Document, error) {
	if id < 0 || id >= len(s.docs) {
		return nil, fmt.Errorf("%s: %w", Name(id), apperrors.ErrDocumentNotFound)
	}
	return s.docs[id], nil
}

func (s *Store) Len() int {
	return len(s.docs)
}

// All returns the documents in id order. The slice must not be modified.
func (s *Store) All() []*Document {
	return s.docs
}
