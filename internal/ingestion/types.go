// Package ingestion defines the corpus record carried between the ingestion
// CLI and the searcher, plus the request/response types of the publish API.
package ingestion

import "time"

// CorpusDocument is the Kafka payload for one corpus document. Seq is the
// document's position in the published corpus; the searcher assigns ids in
// the order messages are consumed, which matches Seq on an ordered topic.
type CorpusDocument struct {
	Seq         int       `json:"seq"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

// PublishRequest is the JSON body accepted by POST /api/v1/documents.
type PublishRequest struct {
	Documents []string `json:"documents"`
}

// PublishResponse reports where a batch ended up.
type PublishResponse struct {
	Accepted  int     `json:"accepted"`
	RowIDs    []int64 `json:"row_ids,omitempty"`
	Published bool    `json:"published"`
	Stored    bool    `json:"stored"`
}
