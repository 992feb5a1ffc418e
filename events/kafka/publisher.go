// Package kafka publishes transaction events to Apache Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/robinvdvleuten/bookkeeper/events"
)

// Publisher writes events to one topic. Messages are keyed by transaction id
// so every event for a transaction lands on the same partition.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a publisher for topic on brokers. Connections are
// opened lazily on the first write.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
			ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
				log.WithField("topic", topic).Errorf(msg, args...)
			}),
		},
	}
}

// Publish writes event synchronously.
func (p *Publisher) Publish(ctx context.Context, event events.TransactionRecorded) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	log.WithField("topic", p.writer.Topic).
		WithField("transaction_id", event.TransactionID).
		Debug("published transaction event")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(event events.TransactionRecorded) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, err
	}

	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.TransactionID, 10)),
		Value: data,
		Time:  event.RecordedAt,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte("transaction.recorded")},
		},
	}, nil
}

var _ events.Publisher = (*Publisher)(nil)
