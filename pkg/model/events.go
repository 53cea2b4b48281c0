package model

import (
	"time"

	"github.com/google/uuid"
)

// SecretOperationEvent is emitted after a mutating Secrets Manager operation
// succeeds. It never carries request or response bodies.
type SecretOperationEvent struct {
	ID            uuid.UUID `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	EventType     string    `json:"event_type"`
	Operation     string    `json:"operation"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	StatusCode    int       `json:"status_code"`
	Service       string    `json:"service"`
	DurationMs    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}

// AuditRecord is one row of the operation journal.
type AuditRecord struct {
	OperationID   string
	Method        string
	Path          string
	CorrelationID string
	StatusCode    int
	Succeeded     bool
	Error         string
	DurationMs    int64
	Source        string
	RecordedAt    time.Time
}
