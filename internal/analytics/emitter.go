// Package analytics records audit events emitted by application services.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/plannio/plannio/internal/storage"
)

// Event describes one auditable action.
type Event struct {
	BusinessID string
	ActorID    string
	Action     string
	Entity     string
	EntityID   string
	Metadata   map[string]string
}

// Emitter appends audit events to the event store. A nil emitter or an emitter
// without a store drops events, so wiring analytics stays optional.
type Emitter struct {
	store storage.AuditEventStore
	now   func() time.Time
}

// NewEmitter creates an emitter backed by the given store.
func NewEmitter(store storage.AuditEventStore, now func() time.Time) *Emitter {
	if now == nil {
		now = time.Now
	}
	return &Emitter{store: store, now: now}
}

// Emit records one audit event. Emitting never blocks the calling operation
// on validation: storage errors are returned for the caller to log.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if e == nil || e.store == nil {
		return nil
	}
	_, err := e.store.AppendAuditEvent(ctx, storage.AuditEvent{
		BusinessID: event.BusinessID,
		ActorID:    event.ActorID,
		Action:     event.Action,
		Entity:     event.Entity,
		EntityID:   event.EntityID,
		Metadata:   event.Metadata,
		CreatedAt:  e.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("emit audit event: %w", err)
	}
	return nil
}

// List returns one page of audit events for a business.
func (e *Emitter) List(ctx context.Context, businessID string, pageSize int, pageToken string) (storage.AuditEventPage, error) {
	if e == nil || e.store == nil {
		return storage.AuditEventPage{}, nil
	}
	return e.store.ListAuditEvents(ctx, businessID, pageSize, pageToken)
}

// Count returns the number of audit events recorded for a business.
func (e *Emitter) Count(ctx context.Context, businessID string) (int, error) {
	if e == nil || e.store == nil {
		return 0, nil
	}
	return e.store.CountAuditEvents(ctx, businessID)
}
