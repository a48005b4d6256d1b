// Package bbolt provides the BoltDB-backed audit event store.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/plannio/plannio/internal/storage"
)

const (
	eventsBucket = "audit_events"
	seqBucket    = "audit_seq"
)

// Store appends and reads audit events in BoltDB.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed audit store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(eventsBucket)); err != nil {
			return fmt.Errorf("create events bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(seqBucket)); err != nil {
			return fmt.Errorf("create sequence bucket: %w", err)
		}
		return nil
	})
}

// eventKey orders events per business: businessID + "/" + zero-padded seq.
func eventKey(businessID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s/%020d", businessID, seq))
}

func eventPrefix(businessID string) []byte {
	return []byte(businessID + "/")
}

// AppendAuditEvent assigns the next per-business sequence and persists the
// event. The returned event carries the assigned sequence.
func (s *Store) AppendAuditEvent(ctx context.Context, event storage.AuditEvent) (storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return storage.AuditEvent{}, err
	}
	if s == nil || s.db == nil {
		return storage.AuditEvent{}, fmt.Errorf("storage is not configured")
	}
	event.BusinessID = strings.TrimSpace(event.BusinessID)
	if event.BusinessID == "" {
		return storage.AuditEvent{}, fmt.Errorf("business id is required")
	}
	if strings.TrimSpace(event.Action) == "" {
		return storage.AuditEvent{}, fmt.Errorf("action is required")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		sequences := tx.Bucket([]byte(seqBucket))
		if sequences == nil {
			return fmt.Errorf("sequence bucket is missing")
		}
		seq := uint64(1)
		if raw := sequences.Get([]byte(event.BusinessID)); len(raw) == 8 {
			seq = binary.BigEndian.Uint64(raw) + 1
		}
		var encoded [8]byte
		binary.BigEndian.PutUint64(encoded[:], seq)
		if err := sequences.Put([]byte(event.BusinessID), encoded[:]); err != nil {
			return fmt.Errorf("advance sequence: %w", err)
		}

		event.Seq = seq
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal audit event: %w", err)
		}
		events := tx.Bucket([]byte(eventsBucket))
		if events == nil {
			return fmt.Errorf("events bucket is missing")
		}
		return events.Put(eventKey(event.BusinessID, seq), payload)
	})
	if err != nil {
		return storage.AuditEvent{}, err
	}
	return event, nil
}

// ListAuditEvents returns one page of events for a business in sequence order.
// The page token is the sequence to resume after.
func (s *Store) ListAuditEvents(ctx context.Context, businessID string, pageSize int, pageToken string) (storage.AuditEventPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.AuditEventPage{}, err
	}
	if s == nil || s.db == nil {
		return storage.AuditEventPage{}, fmt.Errorf("storage is not configured")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return storage.AuditEventPage{}, fmt.Errorf("business id is required")
	}
	if pageSize <= 0 {
		return storage.AuditEventPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var afterSeq uint64
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		parsed, err := strconv.ParseUint(pageToken, 10, 64)
		if err != nil {
			return storage.AuditEventPage{}, fmt.Errorf("invalid page token: %w", err)
		}
		afterSeq = parsed
	}

	page := storage.AuditEventPage{Events: make([]storage.AuditEvent, 0, pageSize)}
	err := s.db.View(func(tx *bbolt.Tx) error {
		events := tx.Bucket([]byte(eventsBucket))
		if events == nil {
			return fmt.Errorf("events bucket is missing")
		}
		prefix := eventPrefix(businessID)
		cursor := events.Cursor()
		start := prefix
		if afterSeq > 0 {
			start = eventKey(businessID, afterSeq+1)
		}
		for key, value := cursor.Seek(start); key != nil && strings.HasPrefix(string(key), string(prefix)); key, value = cursor.Next() {
			var event storage.AuditEvent
			if err := json.Unmarshal(value, &event); err != nil {
				return fmt.Errorf("unmarshal audit event: %w", err)
			}
			page.Events = append(page.Events, event)
			if len(page.Events) > pageSize {
				break
			}
		}
		return nil
	})
	if err != nil {
		return storage.AuditEventPage{}, err
	}
	if len(page.Events) > pageSize {
		page.Events = page.Events[:pageSize]
		page.NextPageToken = strconv.FormatUint(page.Events[pageSize-1].Seq, 10)
	}
	return page, nil
}

// CountAuditEvents counts all events recorded for a business.
func (s *Store) CountAuditEvents(ctx context.Context, businessID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return 0, fmt.Errorf("business id is required")
	}

	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		events := tx.Bucket([]byte(eventsBucket))
		if events == nil {
			return fmt.Errorf("events bucket is missing")
		}
		prefix := eventPrefix(businessID)
		cursor := events.Cursor()
		for key, _ := cursor.Seek(prefix); key != nil && strings.HasPrefix(string(key), string(prefix)); key, _ = cursor.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

var _ storage.AuditEventStore = (*Store)(nil)
