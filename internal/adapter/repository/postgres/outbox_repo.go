package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository. Writes carry the
// event's tenant; the publisher reads across tenants.
type OutboxRepository struct {
	db DBTX
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO outbox_events (id, tenant_id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID,
		event.TenantID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		payload,
		timeToPgTimestamptz(event.CreatedAt),
		event.Published,
	)
	return err
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, aggregate_id, aggregate_type, event_type, payload, created_at, published_at, published
		FROM outbox_events
		WHERE NOT published
		ORDER BY created_at, id
		LIMIT $1`, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var (
			ev                     domain.OutboxEvent
			payload                []byte
			createdAt, publishedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&ev.ID, &ev.TenantID, &ev.AggregateID, &ev.AggregateType, &ev.EventType,
			&payload, &createdAt, &publishedAt, &ev.Published); err != nil {
			return nil, err
		}
		if payload != nil {
			_ = json.Unmarshal(payload, &ev.Payload)
		}
		ev.CreatedAt = createdAt.Time.UTC()
		ev.PublishedAt = pgTimestamptzToPtr(publishedAt)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE outbox_events SET published = TRUE, published_at = $2
		WHERE id = $1`, id, timeToPgTimestamptz(publishedAt))
	return err
}

// DeletePublished deletes published events older than before.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM outbox_events WHERE published AND published_at < $1`, timeToPgTimestamptz(before))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
