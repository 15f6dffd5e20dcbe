package analytics

import "time"

type EventType string

const (
	EventSearch      EventType = "search"
	EventCacheHit    EventType = "cache_hit"
	EventZeroResult  EventType = "zero_result"
	EventSearchError EventType = "search_error"
	EventCorpusLoad  EventType = "corpus_loaded"
)

// SearchEvent describes one answered (or failed) query.
type SearchEvent struct {
	Type        EventType `json:"type"`
	Query       string    `json:"query"`
	Mode        string    `json:"mode"`
	Terms       []string  `json:"terms"`
	TotalHits   int       `json:"total_hits"`
	Returned    int       `json:"returned"`
	LatencyMs   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Error       string    `json:"error,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id"`
}

// CorpusEvent is emitted once when the index is finalized.
type CorpusEvent struct {
	Type        EventType `json:"type"`
	Source      string    `json:"source"`
	Documents   int       `json:"documents"`
	Skipped     int       `json:"skipped"`
	Terms       int       `json:"terms"`
	Strategy    string    `json:"strategy"`
	Fingerprint string    `json:"fingerprint"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// TypeOf classifies a search outcome.
func TypeOf(cacheHit bool, totalHits int, err error) EventType {
	switch {
	case err != nil:
		return EventSearchError
	case cacheHit:
		return EventCacheHit
	case totalHits == 0:
		return EventZeroResult
	default:
		return EventSearch
	}
}
