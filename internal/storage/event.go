package storage

import (
	"context"
	"time"
)

// AuditEvent is one append-only audit log entry.
type AuditEvent struct {
	// Seq is the per-business monotonic sequence, assigned on append.
	Seq        uint64
	BusinessID string
	ActorID    string
	Action     string
	Entity     string
	EntityID   string
	Metadata   map[string]string
	CreatedAt  time.Time
}

// AuditEventPage stores one page of audit events.
type AuditEventPage struct {
	Events        []AuditEvent
	NextPageToken string
}

// AuditEventStore persists append-only audit events.
type AuditEventStore interface {
	AppendAuditEvent(ctx context.Context, event AuditEvent) (AuditEvent, error)
	ListAuditEvents(ctx context.Context, businessID string, pageSize int, pageToken string) (AuditEventPage, error)
	CountAuditEvents(ctx context.Context, businessID string) (int, error)
}
