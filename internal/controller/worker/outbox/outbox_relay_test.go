package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/entity"
	"github.com/andreyxaxa/Image-Captioner/internal/repo/memory"
	outboxuc "github.com/andreyxaxa/Image-Captioner/internal/usecase/outbox"
	"github.com/andreyxaxa/Image-Captioner/pkg/logger"
	"github.com/google/uuid"
)

type fakeSender struct {
	mu     sync.Mutex
	err    error
	sent   []string
	closed bool
}

func (s *fakeSender) SendEvents(_ context.Context, events []*entity.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	for _, e := range events {
		s.sent = append(s.sent, e.AggregateKey)
	}

	return nil
}

func (s *fakeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func seed(t *testing.T, repo *memory.OutboxRepo, keys ...string) {
	t.Helper()

	for _, key := range keys {
		err := repo.Create(context.Background(), &entity.OutboxEvent{
			ID:           uuid.New(),
			AggregateKey: key,
			Status:       entity.Pending,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func newRelay(repo *memory.OutboxRepo, sender *fakeSender) *OutboxRelay {
	l := logger.NewWithWriter("error", io.Discard)
	uc := outboxuc.New(repo, memory.NewRecordRepo(), memory.NewTransactor(), l)

	return New(uc, sender, l, time.Hour, time.Hour, time.Hour, time.Hour, time.Second, 10, 3)
}

func TestProcessEventsBatchPublishes(t *testing.T) {
	repo := memory.NewOutboxRepo()
	seed(t, repo, "uploads/a.png", "uploads/b.png")
	sender := &fakeSender{}

	newRelay(repo, sender).processEventsBatch(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("Expected 2 published events, got %v", sender.sent)
	}
	for _, e := range repo.Events() {
		if e.Status != entity.Processed || e.ProcessedAt == nil {
			t.Errorf("Expected processed event, got %+v", e)
		}
	}
}

func TestProcessEventsBatchRetries(t *testing.T) {
	repo := memory.NewOutboxRepo()
	seed(t, repo, "uploads/a.png")
	sender := &fakeSender{err: errors.New("broker down")}

	newRelay(repo, sender).processEventsBatch(context.Background())

	e := repo.Events()[0]
	if e.Status != entity.Pending || e.RetryCount != 1 {
		t.Errorf("Expected event back in pending with one retry, got %+v", e)
	}
}

func TestRelayStartShutdown(t *testing.T) {
	repo := memory.NewOutboxRepo()
	seed(t, repo, "uploads/a.png")
	sender := &fakeSender{}

	l := logger.NewWithWriter("error", io.Discard)
	r := New(outboxuc.New(repo, memory.NewRecordRepo(), memory.NewTransactor(), l), sender, l,
		10*time.Millisecond, time.Hour, time.Hour, time.Hour, time.Second, 10, 3)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		sender.mu.Lock()
		n := len(sender.sent)
		sender.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for relay")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := r.Shutdown(context.Background()); err != nil {
		t.Fatalf("Unexpected error %s", err)
	}
	if !sender.closed {
		t.Error("Expected sender to be closed")
	}
}
