package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hookchatio/hookchat/internal/webhook"
)

// ErrNotFound is returned when a queue entry id does not exist.
var ErrNotFound = errors.New("queue entry not found")

// retryDelaysMs is the fixed backoff ladder in milliseconds. Consumers depend
// on these exact delays; attempts past the end reuse the last entry.
var retryDelaysMs = [...]int64{1000, 2000, 5000, 10000, 30000}

// Entry is one pending delivery. ID equals the payload's MessageID so a
// logical send is queued at most once. Entries that exhaust their attempts
// stay in the store until an explicit Retry or Clear.
type Entry struct {
	ID          string          `json:"id"`
	Payload     webhook.Payload `json:"payload"`
	Target      *webhook.Target `json:"target,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	// NextRetry is epoch milliseconds; an entry is ready once it has passed.
	NextRetry  int64     `json:"nextRetry"`
	LastError  string    `json:"lastError,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// Exhausted reports whether the entry has used up its delivery attempts.
func (e Entry) Exhausted() bool {
	return e.Attempts >= e.MaxAttempts
}

// Store persists queue entries. List returns entries in enqueue order.
type Store interface {
	Get(ctx context.Context, id string) (Entry, bool, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}

// Sender delivers one payload; the dispatcher satisfies this.
type Sender interface {
	Send(ctx context.Context, p webhook.Payload, target *webhook.Target) webhook.Result
}

// Queue holds payloads whose delivery failed and retries them one at a time
// with the fixed backoff ladder. Delivery stays best-effort: entries survive
// restarts through the store, but there is no ordering guarantee beyond
// FIFO-by-readiness.
type Queue struct {
	store       Store
	sender      Sender
	logger      *slog.Logger
	maxAttempts int
	now         func() time.Time
	onDelivered func(Entry, webhook.Result)
	onExhausted func(Entry)
}

func New(log *slog.Logger, store Store, sender Sender, maxAttempts int) *Queue {
	if log == nil {
		log = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Queue{
		store:       store,
		sender:      sender,
		logger:      log.With(slog.String("service", "queue")),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// SetDeliveredFunc registers a callback invoked after a queued payload is
// finally delivered, so the reply can be persisted and pushed to clients.
func (q *Queue) SetDeliveredFunc(fn func(Entry, webhook.Result)) {
	q.onDelivered = fn
}

// SetExhaustedFunc registers a callback invoked once when an entry uses up
// its last attempt, so clients can be told the delivery failed for good.
func (q *Queue) SetExhaustedFunc(fn func(Entry)) {
	q.onExhausted = fn
}

// Enqueue records a payload for background delivery. A non-empty lastError
// marks the direct send that already failed as the first attempt. Enqueueing
// an id that already exists is a no-op and returns the existing entry.
func (q *Queue) Enqueue(ctx context.Context, p webhook.Payload, target *webhook.Target, lastError string) (Entry, error) {
	if existing, ok, err := q.store.Get(ctx, p.MessageID); err != nil {
		return Entry{}, err
	} else if ok {
		return existing, nil
	}

	now := q.now()
	entry := Entry{
		ID:          p.MessageID,
		Payload:     p,
		Target:      target,
		MaxAttempts: q.maxAttempts,
		NextRetry:   now.UnixMilli(),
		EnqueuedAt:  now,
	}
	if lastError != "" {
		entry.Attempts = 1
		entry.LastError = lastError
		entry.NextRetry = now.UnixMilli() + retryDelaysMs[0]
	}
	if err := q.store.Put(ctx, entry); err != nil {
		return Entry{}, err
	}
	q.logger.Info("payload queued for retry",
		slog.String("id", entry.ID),
		slog.Int("attempts", entry.Attempts))
	return entry, nil
}

// ProcessNext delivers at most one ready entry and reports whether it
// processed anything. Callers drive it from a timer; processing one entry
// per call bounds the load on the target webhook.
func (q *Queue) ProcessNext(ctx context.Context) (bool, error) {
	entries, err := q.store.List(ctx)
	if err != nil {
		return false, err
	}

	nowMs := q.now().UnixMilli()
	for _, entry := range entries {
		if entry.Exhausted() || entry.NextRetry > nowMs {
			continue
		}

		result := q.sender.Send(ctx, entry.Payload, entry.Target)
		if result.Success {
			if err := q.store.Delete(ctx, entry.ID); err != nil {
				return true, err
			}
			q.logger.Info("queued payload delivered", slog.String("id", entry.ID))
			if q.onDelivered != nil {
				q.onDelivered(entry, result)
			}
			return true, nil
		}

		delay := backoffDelayMs(entry.Attempts)
		entry.Attempts++
		entry.NextRetry = q.now().UnixMilli() + delay
		entry.LastError = result.Error
		if err := q.store.Put(ctx, entry); err != nil {
			return true, err
		}
		if entry.Exhausted() {
			q.logger.Warn("queued payload failed permanently",
				slog.String("id", entry.ID),
				slog.String("error", entry.LastError))
			if q.onExhausted != nil {
				q.onExhausted(entry)
			}
		}
		return true, nil
	}
	return false, nil
}

// Retry resets a permanently-failed entry so it becomes ready immediately.
func (q *Queue) Retry(ctx context.Context, id string) error {
	entry, ok, err := q.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	entry.Attempts = 0
	entry.NextRetry = q.now().UnixMilli()
	entry.LastError = ""
	return q.store.Put(ctx, entry)
}

// List returns all entries in enqueue order.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	return q.store.List(ctx)
}

// Clear drops every entry, including permanently-failed ones.
func (q *Queue) Clear(ctx context.Context) error {
	return q.store.Clear(ctx)
}

func backoffDelayMs(attempts int) int64 {
	idx := attempts
	if idx >= len(retryDelaysMs) {
		idx = len(retryDelaysMs) - 1
	}
	return retryDelaysMs[idx]
}
