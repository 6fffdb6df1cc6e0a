// Package streams wires the service to Redis Streams: an inbound stream of
// feedback submissions from chat-bot producers, and an outbound stream of
// digest-created events for downstream consumers.
package streams

// Stream name constants
const (
	StreamFeedbackInbound = "feedback:inbound"
	StreamDigestEvents    = "digest:events"
)

// Consumer group for the inbound feedback stream
const GroupIngestWorkers = "sift-ingest"

// Schema version constant
const SchemaVersionV1 = "v1"

// InboundFeedback is one feedback submission read from the inbound stream.
// Same shape as the HTTP submission body.
type InboundFeedback struct {
	Source  string `json:"source"`
	Content string `json:"content"`
	Author  string `json:"author,omitempty"`
}

// DigestCreated announces a newly persisted digest.
type DigestCreated struct {
	DigestID      uint  `json:"digest_id"`
	FeedbackCount int   `json:"feedback_count"`
	CreatedAt     int64 `json:"created_at"`
}
