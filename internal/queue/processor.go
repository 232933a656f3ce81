package queue

import (
	"context"
	"log/slog"
	"time"
)

// Processor drives the queue from a ticker. One processor runs per service
// instance, so at most one queued send is in flight at a time.
type Processor struct {
	queue    *Queue
	interval time.Duration
	logger   *slog.Logger
}

func NewProcessor(log *slog.Logger, queue *Queue, interval time.Duration) *Processor {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Processor{
		queue:    queue,
		interval: interval,
		logger:   log.With(slog.String("service", "queue_processor")),
	}
}

// Run blocks until ctx is canceled, attempting one delivery per tick.
func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.queue.ProcessNext(ctx); err != nil {
				p.logger.Error("queue processing failed", slog.Any("error", err))
			}
		}
	}
}
