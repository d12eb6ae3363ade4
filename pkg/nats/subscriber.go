package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"deckster-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event off the bus. A non-nil error
// triggers redelivery.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber attaches durable consumers to the event stream.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js}, nil
}

// SubscribeType consumes a single event type under a durable name, so
// workers resume where they left off across restarts.
func (s *Subscriber) SubscribeType(eventType string, durableName string, handler EventHandler) error {
	return s.subscribe(SubjectPrefix+eventType, durableName, handler)
}

// SubscribeAll consumes every event on the stream.
func (s *Subscriber) SubscribeAll(durableName string, handler EventHandler) error {
	return s.subscribe(SubjectWildcard, durableName, handler)
}

func (s *Subscriber) subscribe(subject string, durableName string, handler EventHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", durableName, err)
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data(), &env); err != nil {
			log.Printf("[ERROR] dropping malformed event on %s: %v", msg.Subject(), err)
			msg.Ack()
			return
		}

		event := events.BaseEvent{
			Type:       env.Type,
			Data:       env.Data,
			OccurredAt: env.OccurredAt,
		}

		if err := handler(context.Background(), event); err != nil {
			log.Printf("[WARN] handler failed for %s, will redeliver: %v", env.Type, err)
			msg.Nak()
			return
		}

		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", subject, err)
	}

	log.Printf("Durable consumer %s listening on %s", durableName, subject)
	return nil
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
