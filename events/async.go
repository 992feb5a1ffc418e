package events

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by AsyncPublisher when its buffer is full.
var ErrQueueFull = errors.New("event queue is full")

// ErrPublisherClosed is returned by AsyncPublisher after Close.
var ErrPublisherClosed = errors.New("event publisher is closed")

// DefaultQueueSize is the buffer of an AsyncPublisher unless configured.
const DefaultQueueSize = 1024

// AsyncPublisher queues events and delivers them from one goroutine, so a
// slow or unreachable downstream never blocks the caller. Delivery order
// is the order of Publish calls.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration

	mu     sync.RWMutex
	queue  chan TransactionRecorded
	closed bool
	done   chan struct{}
}

// AsyncOption configures an AsyncPublisher.
type AsyncOption func(*AsyncPublisher)

// WithQueueSize sets how many events may wait for delivery.
func WithQueueSize(n int) AsyncOption {
	return func(p *AsyncPublisher) {
		p.queue = make(chan TransactionRecorded, n)
	}
}

// WithDeliveryTimeout bounds each delivery to next.
func WithDeliveryTimeout(d time.Duration) AsyncOption {
	return func(p *AsyncPublisher) {
		p.timeout = d
	}
}

// NewAsyncPublisher starts delivering queued events to next.
func NewAsyncPublisher(next Publisher, opts ...AsyncOption) *AsyncPublisher {
	p := &AsyncPublisher{
		next:    next,
		timeout: 30 * time.Second,
		queue:   make(chan TransactionRecorded, DefaultQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.run()
	return p
}

// Publish queues event. It never waits for delivery.
func (p *AsyncPublisher) Publish(_ context.Context, event TransactionRecorded) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queued ones have been
// delivered.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return nil
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.next.Publish(ctx, event)
		cancel()

		if err != nil {
			log.WithError(err).
				WithField("transaction_id", event.TransactionID).
				WithField("event_id", event.EventID).
				Warn("failed to deliver transaction event")
		}
	}
}

var _ Publisher = (*AsyncPublisher)(nil)
