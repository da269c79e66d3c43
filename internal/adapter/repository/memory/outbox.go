package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository. Events of every
// tenant share one queue.
type OutboxRepository struct {
	store *Store
}

// Create queues an event; it becomes visible when tx commits.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	_, t, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	ev := *event
	t.events = append(t.events, &ev)
	return nil
}

// GetUnpublished returns up to limit committed events, oldest first.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, ev := range r.store.outbox {
		if ev.Published {
			continue
		}
		c := *ev
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished flags an event as delivered.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, ev := range r.store.outbox {
		if ev.ID == id {
			at := publishedAt
			ev.Published = true
			ev.PublishedAt = &at
			return nil
		}
	}
	return nil
}

// DeletePublished drops delivered events published before the cutoff.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	var deleted int64
	for _, ev := range r.store.outbox {
		if ev.Published && ev.PublishedAt != nil && ev.PublishedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	r.store.outbox = kept
	return deleted, nil
}

// Events returns a copy of every committed event of tenantID.
func (s *Store) Events(tenantID string) []domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.OutboxEvent
	for _, ev := range s.outbox {
		if ev.TenantID == tenantID {
			out = append(out, *ev)
		}
	}
	return out
}

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// CreateTx queues an audit log; it becomes visible when tx commits.
func (r *AuditRepository) CreateTx(_ context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	_, t, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	entry := *log
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	log.ID = entry.ID
	t.logs = append(t.logs, &entry)
	return nil
}

// AuditLogs returns a copy of every committed audit log of tenantID.
func (s *Store) AuditLogs(tenantID string) []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AuditLog
	for _, l := range s.audit {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return out
}

// Outbox returns the shared outbox used by the event publisher.
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}
