package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	block  chan struct{}
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, ev domain.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) snapshot() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func TestDispatcher_PreservesPerKeyOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, Options{Workers: 4, Buffer: 64}, zerolog.Nop())
	d.Start()

	for i := 0; i < 20; i++ {
		ev := domain.UserUpdated{ID: "user-1", Fields: []string{fmt.Sprint(i)}}
		if err := d.Publish(context.Background(), ev); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
		_ = d.Publish(context.Background(), domain.UserUpdated{ID: fmt.Sprintf("other-%d", i)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	next := 0
	for _, ev := range sink.snapshot() {
		u := ev.(domain.UserUpdated)
		if u.ID != "user-1" {
			continue
		}
		if u.Fields[0] != fmt.Sprint(next) {
			t.Fatalf("out of order: expected %d, got %s", next, u.Fields[0])
		}
		next++
	}
	if next != 20 {
		t.Fatalf("expected 20 events for user-1, got %d", next)
	}
}

func TestDispatcher_DropsWhenShardFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, Options{Workers: 1, Buffer: 1}, zerolog.Nop())
	d.Start()

	ev := domain.UserLoggedIn{SubjectID: "u1"}
	var dropped error
	// one event is held by the blocked worker, one fills the buffer
	for i := 0; i < 3 && dropped == nil; i++ {
		dropped = d.Publish(context.Background(), ev)
		time.Sleep(10 * time.Millisecond)
	}
	if !errors.Is(dropped, domain.ErrPublishQueueFull) {
		t.Fatalf("expected ErrPublishQueueFull, got %v", dropped)
	}

	close(sink.block)
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := len(sink.snapshot()); got != 2 {
		t.Fatalf("expected 2 published events, got %d", got)
	}
}

func TestDispatcher_SinkErrorsAreSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	d := NewDispatcher(sink, Options{Workers: 2}, zerolog.Nop())
	d.Start()

	if err := d.Publish(context.Background(), domain.UserDeleted{ID: "u1"}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(sink.snapshot()) != 1 {
		t.Fatalf("expected the sink to be called once")
	}
}

func TestDispatcher_RejectsAfterShutdown(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, Options{}, zerolog.Nop())
	d.Start()
	_ = d.Shutdown(context.Background())

	if err := d.Publish(context.Background(), domain.UserDeleted{ID: "u1"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}
