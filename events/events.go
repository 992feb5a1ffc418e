// Package events publishes notifications about accepted transactions to
// external systems.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// TransactionRecorded is emitted once for every transaction the ledger
// accepts. EventID is unique per emission, so consumers can deduplicate
// redeliveries.
type TransactionRecorded struct {
	EventID       string         `json:"event_id"`
	TransactionID int64          `json:"transaction_id"`
	Timestamp     time.Time      `json:"timestamp"`
	RecordedAt    time.Time      `json:"recorded_at"`
	Entries       []ledger.Entry `json:"entries"`
	DebitTotal    int64          `json:"debit_total"`
	CreditTotal   int64          `json:"credit_total"`
	Backdated     bool           `json:"backdated"`
}

// NewTransactionRecorded builds the event for an applied delta.
func NewTransactionRecorded(delta *ledger.TransactionDelta, recordedAt time.Time) TransactionRecorded {
	txn := delta.Transaction.Clone()
	return TransactionRecorded{
		EventID:       uuid.NewString(),
		TransactionID: txn.ID,
		Timestamp:     txn.Timestamp,
		RecordedAt:    recordedAt,
		Entries:       txn.Entries,
		DebitTotal:    delta.DebitTotal,
		CreditTotal:   delta.CreditTotal,
		Backdated:     delta.Backdated,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event TransactionRecorded) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event TransactionRecorded) error

func (f PublisherFunc) Publish(ctx context.Context, event TransactionRecorded) error {
	return f(ctx, event)
}

// Hook is a ledger.Hook that publishes a TransactionRecorded event for every
// accepted transaction. The transaction is already stored when the hook
// runs, so a failed delivery is logged and not returned.
type Hook struct {
	publisher Publisher
	now       func() time.Time
}

// HookOption configures a Hook.
type HookOption func(*Hook)

// WithHookClock sets the source of RecordedAt.
func WithHookClock(now func() time.Time) HookOption {
	return func(h *Hook) {
		h.now = now
	}
}

// NewHook creates a hook publishing through p.
func NewHook(p Publisher, opts ...HookOption) *Hook {
	h := &Hook{publisher: p, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hook) TransactionRecorded(ctx context.Context, delta *ledger.TransactionDelta) {
	event := NewTransactionRecorded(delta, h.now())
	if err := h.publisher.Publish(ctx, event); err != nil {
		log.WithError(err).
			WithField("transaction_id", event.TransactionID).
			WithField("event_id", event.EventID).
			Warn("failed to publish transaction event")
	}
}

var _ ledger.Hook = (*Hook)(nil)
