package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hookchatio/hookchat/internal/webhook"
)

// PGStore persists queue entries in Postgres so pending deliveries survive
// restarts.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, id string) (Entry, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, payload, target, attempts, max_attempts, next_retry_ms, last_error, enqueued_at
		FROM queue_entries WHERE id = $1`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *PGStore) Put(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal queued payload: %w", err)
	}
	var target []byte
	if entry.Target != nil {
		if target, err = json.Marshal(entry.Target); err != nil {
			return fmt.Errorf("marshal queued target: %w", err)
		}
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO queue_entries (id, payload, target, attempts, max_attempts, next_retry_ms, last_error, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			attempts = EXCLUDED.attempts,
			next_retry_ms = EXCLUDED.next_retry_ms,
			last_error = EXCLUDED.last_error`,
		entry.ID, payload, target, entry.Attempts, entry.MaxAttempts,
		entry.NextRetry, entry.LastError, entry.EnqueuedAt)
	return err
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, id)
	return err
}

func (s *PGStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, payload, target, attempts, max_attempts, next_retry_ms, last_error, enqueued_at
		FROM queue_entries ORDER BY enqueued_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PGStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM queue_entries`)
	return err
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var payload, target []byte
	if err := row.Scan(&entry.ID, &payload, &target, &entry.Attempts,
		&entry.MaxAttempts, &entry.NextRetry, &entry.LastError, &entry.EnqueuedAt); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal(payload, &entry.Payload); err != nil {
		return Entry{}, fmt.Errorf("unmarshal queued payload: %w", err)
	}
	if len(target) > 0 {
		entry.Target = &webhook.Target{}
		if err := json.Unmarshal(target, entry.Target); err != nil {
			return Entry{}, fmt.Errorf("unmarshal queued target: %w", err)
		}
	}
	return entry, nil
}
