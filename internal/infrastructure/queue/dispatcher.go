package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/api/metrics"
	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

const (
	defaultWorkers        = 4
	defaultChannelBuffer  = 256
	defaultPublishTimeout = 3 * time.Second
)

// ErrClosed is returned by Publish after Shutdown has begun.
var ErrClosed = errors.New("event dispatcher closed")

// Options tunes a Dispatcher. Zero values fall back to the defaults.
type Options struct {
	Workers        int
	Buffer         int
	PublishTimeout time.Duration
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// Dispatcher hands events to a broker publisher in the background. Events
// are sharded by their key over a fixed set of workers, so events about the
// same user are published in the order they were produced.
//
// Delivery is at most once: a full shard drops the event, and a failed
// publish is logged and not retried.
type Dispatcher struct {
	workers []chan domain.Event
	sink    ports.EventPublisher
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher that publishes through sink.
func NewDispatcher(sink ports.EventPublisher, opts Options, log zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultChannelBuffer
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}

	d := &Dispatcher{
		workers: make([]chan domain.Event, opts.Workers),
		sink:    sink,
		timeout: opts.PublishTimeout,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, opts.Buffer)
	}
	return d
}

// Start launches all worker goroutines. They run until Shutdown.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Publish enqueues ev without blocking. It returns domain.ErrPublishQueueFull
// when the event's shard is full and ErrClosed after Shutdown.
func (d *Dispatcher) Publish(_ context.Context, ev domain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	idx := d.shardIndex(ev.Key())
	select {
	case d.workers[idx] <- ev:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		metrics.EventsPublishedTotal.WithLabelValues(string(ev.Topic()), "dropped").Inc()
		return fmt.Errorf("%w: worker %d", domain.ErrPublishQueueFull, idx)
	}
}

// Shutdown stops accepting events and waits until the queued ones are
// published or ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event dispatcher drain: %w", ctx.Err())
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.Event) {
	defer d.wg.Done()
	worker := strconv.Itoa(id)

	for ev := range ch {
		metrics.EventsQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
		d.publish(id, ev)
	}
}

func (d *Dispatcher) publish(worker int, ev domain.Event) {
	topic := string(ev.Topic())
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	err := d.sink.Publish(ctx, ev)
	metrics.EventPublishDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(topic, "failed").Inc()
		d.log.Error().Err(err).
			Str("topic", topic).
			Str("key", ev.Key()).
			Int("worker_id", worker).
			Msg("event publish failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic, "published").Inc()
}
