package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"deckster-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// clusterChannel carries events between API instances.
const clusterChannel = "deckster_session_events"

// SessionEvent is the payload pushed to connected clients when a
// session changes state server-side.
type SessionEvent struct {
	Type      string                 `json:"type"`
	SessionId string                 `json:"session_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type Hub struct {
	// One user can hold several connections (tabs, devices).
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Cross-instance fan-out. Nil means single-instance mode.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.listenCluster()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("Hub", "Last connection closed", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send pushes a session event to every connection the user holds. With
// Redis the event goes through the cluster channel so every instance,
// this one included, delivers to its own clients exactly once.
func (h *Hub) Send(userID uuid.UUID, event SessionEvent) {
	frame, err := json.Marshal(map[string]interface{}{
		"type": "session_event",
		"data": event,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{"error": err.Error()})
		return
	}

	if h.rdb == nil {
		h.deliverLocal(userID, frame)
		return
	}

	envelope, _ := json.Marshal(map[string]interface{}{
		"target_user_id": userID.String(),
		"message":        frame,
	})
	if err := h.rdb.Publish(context.Background(), clusterChannel, envelope).Err(); err != nil {
		h.logger.Warn("Hub", "Cluster publish failed, delivering locally only", map[string]interface{}{"error": err.Error()})
		h.deliverLocal(userID, frame)
	}
}

func (h *Hub) deliverLocal(userID uuid.UUID, frame []byte) {
	// The read lock stays held across the sends. Run closes Send
	// channels under the write lock, so a client can never be closed
	// while a frame is in flight; sends below never block, so the lock
	// is released promptly.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- frame:
		default:
			// Slow consumer. Drop the frame rather than the connection;
			// the client resyncs on its next fetch anyway.
			h.logger.Warn("Hub", "Send buffer full, dropping event", map[string]interface{}{"user_id": userID})
		}
	}
}

func (h *Hub) listenCluster() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("cluster event parse error: %v", err)
			continue
		}

		uid, err := uuid.Parse(envelope.TargetUserID)
		if err != nil {
			continue
		}

		h.deliverLocal(uid, envelope.Message)
	}
}
