package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeMailer struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []Message
	signal   chan struct{}
}

func newFakeMailer(failures int) *fakeMailer {
	return &fakeMailer{failures: failures, signal: make(chan struct{}, 16)}
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		m.signal <- struct{}{}
	}()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) waitCalls(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for send %d of %d", i+1, n)
		}
	}
}

func fastOptions(size, attempts int) QueueOptions {
	return QueueOptions{
		Size:           size,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	mailer := newFakeMailer(2)
	q := NewQueue(mailer, fastOptions(4, 3))
	q.Start(context.Background())
	defer q.Stop(context.Background())

	if !q.Enqueue(Message{Kind: KindClaimApproved, Recipient: "a@campus.test"}) {
		t.Fatal("expected enqueue to succeed")
	}
	mailer.waitCalls(t, 3)

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if len(mailer.sent) != 1 {
		t.Errorf("expected 1 delivered message, got %d", len(mailer.sent))
	}
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	mailer := newFakeMailer(100)
	q := NewQueue(mailer, fastOptions(4, 2))
	q.Start(context.Background())

	q.Enqueue(Message{Kind: KindClaimRejected})
	q.Enqueue(Message{Kind: KindPickupScheduled})
	mailer.waitCalls(t, 4)
	q.Stop(context.Background())

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if mailer.calls != 4 {
		t.Errorf("expected 2 attempts per message, got %d calls", mailer.calls)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("expected nothing delivered, got %d", len(mailer.sent))
	}
}

func TestEnqueueDoesNotBlockWhenFull(t *testing.T) {
	q := NewQueue(newFakeMailer(0), fastOptions(1, 1))

	if !q.Enqueue(Message{Kind: KindClaimApproved}) {
		t.Fatal("first enqueue should fit")
	}

	done := make(chan bool, 1)
	go func() { done <- q.Enqueue(Message{Kind: KindClaimApproved}) }()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected full queue to drop the message")
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	q := NewQueue(LogMailer{}, QueueOptions{})
	q.Stop(context.Background())
	q.Start(context.Background())
	q.Stop(context.Background())
	q.Stop(context.Background())
}

func TestStopDeliversBufferedMessages(t *testing.T) {
	mailer := newFakeMailer(0)
	q := NewQueue(mailer, fastOptions(8, 1))
	q.Start(context.Background())

	kinds := []Kind{KindClaimApproved, KindClaimRejected, KindPickupScheduled}
	for _, k := range kinds {
		if !q.Enqueue(Message{Kind: k, Recipient: "a@campus.test"}) {
			t.Fatalf("enqueue %s failed", k)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Stop(ctx)

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if len(mailer.sent) != len(kinds) {
		t.Fatalf("expected %d delivered messages after Stop, got %d", len(kinds), len(mailer.sent))
	}
	for i, k := range kinds {
		if mailer.sent[i].Kind != k {
			t.Errorf("message %d: expected %s, got %s", i, k, mailer.sent[i].Kind)
		}
	}
}

func TestStopGivesUpAtDeadline(t *testing.T) {
	mailer := newFakeMailer(100)
	q := NewQueue(mailer, QueueOptions{
		Size:           4,
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
	})
	q.Start(context.Background())
	q.Enqueue(Message{Kind: KindClaimApproved})
	q.Enqueue(Message{Kind: KindClaimRejected})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		q.Stop(ctx)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after its deadline")
	}
}
