package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// QueueOptions configures a Queue. Zero values use the defaults below.
type QueueOptions struct {
	Size           int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

const (
	defaultQueueSize      = 100
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// Queue buffers messages and delivers them on a single worker goroutine,
// retrying failed sends with exponential backoff.
type Queue struct {
	mailer Mailer
	opts   QueueOptions
	ch     chan Message

	mu     sync.Mutex
	cancel context.CancelFunc
	quit   chan struct{}
	done   chan struct{}
}

// NewQueue returns a Queue that is not yet running. Call Start to begin
// delivery.
func NewQueue(mailer Mailer, opts QueueOptions) *Queue {
	if opts.Size <= 0 {
		opts.Size = defaultQueueSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	return &Queue{
		mailer: mailer,
		opts:   opts,
		ch:     make(chan Message, opts.Size),
	}
}

// Enqueue schedules msg for delivery without blocking. It returns false and
// logs when the queue is full.
func (q *Queue) Enqueue(msg Message) bool {
	select {
	case q.ch <- msg:
		return true
	default:
		slog.Warn("mail queue full, dropping message",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
		)
		return false
	}
}

// Start launches the delivery worker. Cancelling ctx aborts delivery at once
// and abandons buffered messages; use Stop for an orderly shutdown.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done != nil {
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	q.quit = make(chan struct{})
	q.done = make(chan struct{})
	go q.run(ctx, q.quit, q.done)
}

// Stop delivers every message already buffered and then halts the worker.
// When ctx expires first, in-flight sends are cancelled and the remaining
// messages are dropped with a warning.
func (q *Queue) Stop(ctx context.Context) {
	q.mu.Lock()
	cancel, quit, done := q.cancel, q.quit, q.done
	q.cancel, q.quit, q.done = nil, nil, nil
	q.mu.Unlock()

	if cancel == nil {
		return
	}
	defer cancel()

	close(quit)
	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		<-done
	}
}

func (q *Queue) run(ctx context.Context, quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			q.abandon()
			return
		case <-quit:
			q.drain(ctx)
			return
		case msg := <-q.ch:
			q.deliver(ctx, msg)
		}
	}
}

// drain delivers buffered messages until the queue is empty or ctx ends.
func (q *Queue) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			q.abandon()
			return
		}
		select {
		case msg := <-q.ch:
			q.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (q *Queue) abandon() {
	if n := len(q.ch); n > 0 {
		slog.Warn("mail queue stopped with undelivered messages", "count", n)
	}
}

func (q *Queue) deliver(ctx context.Context, msg Message) {
	var err error
	for attempt := 1; attempt <= q.opts.MaxAttempts; attempt++ {
		if err = q.mailer.Send(ctx, msg); err == nil {
			return
		}
		if attempt == q.opts.MaxAttempts {
			break
		}

		backoff := q.opts.InitialBackoff * time.Duration(1<<uint(attempt-1))
		if backoff > q.opts.MaxBackoff {
			backoff = q.opts.MaxBackoff
		}
		slog.Warn("mail send failed, retrying",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if sleepWithContext(ctx, backoff) != nil {
			return
		}
	}
	slog.Error("mail send failed, giving up",
		"kind", msg.Kind,
		"recipient", msg.Recipient,
		"attempts", q.opts.MaxAttempts,
		"error", err,
	)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
