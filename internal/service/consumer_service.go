package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"deckster-be/internal/websocket"
	"deckster-be/pkg/events"
	pkgNats "deckster-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// SessionEventEnvelope is the in-process message shape services publish
// when a session changes state.
type SessionEventEnvelope struct {
	UserId    uuid.UUID              `json:"user_id"`
	Type      string                 `json:"type"`
	SessionId string                 `json:"session_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	hub            *websocket.Hub
	eventPublisher *pkgNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
	eventPublisher *pkgNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		hub:            hub,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var envelope SessionEventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		log.Printf("[ERROR] Failed to unmarshal session event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.hub != nil {
		cs.hub.Send(envelope.UserId, websocket.SessionEvent{
			Type:      envelope.Type,
			SessionId: envelope.SessionId,
			Data:      envelope.Data,
		})
	}

	// Fan out to the durable bus so other services can react.
	if cs.eventPublisher != nil {
		evt := durableEvent(envelope)
		if err := cs.eventPublisher.Publish(context.Background(), evt); err != nil {
			log.Printf("[WARN] Failed to publish %s event to NATS: %v", envelope.Type, err)
		}
	}

	msg.Ack()
}

// durableEvent rebuilds the typed event for the bus. Known types go
// through their constructors so durable consumers see a stable payload;
// anything else carries the envelope's identity fields verbatim.
func durableEvent(envelope SessionEventEnvelope) events.Event {
	uid := envelope.UserId.String()

	switch envelope.Type {
	case events.TypeSessionActivated:
		return events.NewSessionActivatedEvent(uid, envelope.SessionId)
	case events.TypeSessionDeleted:
		return events.NewSessionDeletedEvent(uid, envelope.SessionId)
	case events.TypeStageChanged:
		stage, _ := envelope.Data["stage"].(float64)
		return events.NewStageChangedEvent(uid, envelope.SessionId, int(stage))
	case events.TypeTierChanged:
		tier, _ := envelope.Data["tier"].(string)
		return events.NewTierChangedEvent(uid, tier)
	default:
		payload := make(map[string]interface{}, len(envelope.Data)+2)
		for k, v := range envelope.Data {
			payload[k] = v
		}
		payload["user_id"] = uid
		if envelope.SessionId != "" {
			payload["session_id"] = envelope.SessionId
		}
		return events.BaseEvent{
			Type:       envelope.Type,
			Data:       payload,
			OccurredAt: time.Now(),
		}
	}
}
