package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"carrental/internal/db"
)

type OutboxRepository struct {
	DB *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

// Create stores a pending message. Call it inside the transaction that
// produced the event.
func (r *OutboxRepository) Create(ctx context.Context, m *db.OutboxMessage) error {
	query := `
		INSERT INTO outbox (id, event_type, recipient, subject, html_body, text_body, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	if m.Status == "" {
		m.Status = db.OutboxStatusNew
	}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		m.ID, m.EventType, m.Recipient, m.Subject, m.HTMLBody, m.TextBody, nullJSON(m.Payload), m.Status,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// ClaimBatch moves up to limit new messages to dispatched and returns them.
// Rows locked by another dispatcher are skipped, so a message is claimed at
// most once.
func (r *OutboxRepository) ClaimBatch(ctx context.Context, limit int) ([]db.OutboxMessage, error) {
	query := `
		WITH claimed AS (
			SELECT id
			FROM outbox
			WHERE status = 'new'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox
		SET status = 'dispatched', updated_at = NOW()
		WHERE id IN (SELECT id FROM claimed)
		RETURNING id, event_type, recipient, subject, html_body, text_body, COALESCE(payload::text, ''),
		          status, last_error, created_at, updated_at`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	defer rows.Close()

	var msgs []db.OutboxMessage
	for rows.Next() {
		var m db.OutboxMessage
		var payload string
		if err := rows.Scan(&m.ID, &m.EventType, &m.Recipient, &m.Subject, &m.HTMLBody, &m.TextBody, &payload,
			&m.Status, &m.LastError, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		if payload != "" {
			m.Payload = []byte(payload)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *OutboxRepository) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE outbox SET status = 'sent', updated_at = NOW() WHERE id = ANY($1)`
	if _, err := conn(ctx, r.DB).ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

// MarkFailed records the delivery error. Failed messages are not retried.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE outbox SET status = 'failed', last_error = $2, updated_at = NOW() WHERE id = $1`
	if _, err := conn(ctx, r.DB).ExecContext(ctx, query, id, reason); err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
