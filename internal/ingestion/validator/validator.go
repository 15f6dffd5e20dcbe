// Package validator checks documents before they are published to a corpus
// sink. Blank bodies are rejected here even though the engine tolerates them,
// since a sink row that can never produce postings is a publishing mistake.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vnadhan/Inverted-Index/internal/ingestion"
)

const (
	maxBodyLength  = 1048576
	maxBatchLength = 10000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// ValidatePublishRequest checks the batch size and every document body.
// Fields are keyed "documents" or "documents[i]".
func ValidatePublishRequest(req *ingestion.PublishRequest) error {
	errs := make(map[string]string)

	switch {
	case len(req.Documents) == 0:
		errs["documents"] = "at least one document is required"
	case len(req.Documents) > maxBatchLength:
		errs["documents"] = fmt.Sprintf("at most %d documents per request", maxBatchLength)
	}
	for i, body := range req.Documents {
		if msg := validateBody(body); msg != "" {
			errs[fmt.Sprintf("documents[%d]", i)] = msg
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateBody(body string) string {
	switch {
	case strings.TrimSpace(body) == "":
		return "body must not be blank"
	case len(body) > maxBodyLength:
		return fmt.Sprintf("body must be at most %d bytes", maxBodyLength)
	case strings.ContainsAny(body, "\r\n"):
		return "body must be a single line"
	}
	return ""
}
