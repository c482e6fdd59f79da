package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrovest/agrovest-api/internal/logger"
	"github.com/agrovest/agrovest-api/internal/models"
)

// Hub is the central registry for all WebSocket connections.
type Hub struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> set of client IDs
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// EventType identifies a WebSocket event.
type EventType string

const (
	EventConnected   EventType = "connected"
	EventTradeUpdate EventType = "trade_update"
	EventOrderUpdate EventType = "order_update"
)

// Event is the wire format pushed to clients.
type Event struct {
	Type      EventType       `json:"type"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient registers a new client connection.
func (h *Hub) AddClient(client *Client) {
	h.clientsMutex.Lock()
	h.clients[client.ID] = client
	h.clientsMutex.Unlock()

	h.userMutex.Lock()
	if _, exists := h.userClients[client.UserID]; !exists {
		h.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	h.userClients[client.UserID][client.ID] = true
	h.userMutex.Unlock()

	logger.L.Info("websocket client connected",
		zap.String("client_id", client.ID.String()),
		zap.String("user_id", client.UserID))
}

// RemoveClient unregisters a client connection.
func (h *Hub) RemoveClient(clientID uuid.UUID) {
	h.clientsMutex.RLock()
	client, exists := h.clients[clientID]
	h.clientsMutex.RUnlock()

	if !exists {
		return
	}

	userID := client.UserID

	h.userMutex.Lock()
	if clients, ok := h.userClients[userID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(h.userClients, userID)
		}
	}
	h.userMutex.Unlock()

	h.clientsMutex.Lock()
	delete(h.clients, clientID)
	h.clientsMutex.Unlock()

	logger.L.Info("websocket client disconnected",
		zap.String("client_id", clientID.String()),
		zap.String("user_id", userID))
}

// SendToUser delivers an event to every connection of a user. Offline users
// simply miss the push; state lives in the database.
func (h *Hub) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	h.userMutex.RLock()
	clientIDs, exists := h.userClients[userID]
	h.userMutex.RUnlock()

	if !exists || len(clientIDs) == 0 {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		logger.L.Error("marshaling websocket event", zap.Error(err))
		return
	}

	for clientID := range clientIDs {
		h.clientsMutex.RLock()
		client, exists := h.clients[clientID]
		h.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		go func(c *Client) {
			select {
			case c.send <- eventJSON:
			default:
				// Channel full, the client is too slow to keep.
				logger.L.Warn("send channel full, closing connection",
					zap.String("client_id", c.ID.String()))
				c.conn.Close()
				h.RemoveClient(c.ID)
			}
		}(client)
	}
}

// NotifyTrade pushes a trade update to both participants.
func (h *Hub) NotifyTrade(trade *models.Trade) {
	payload, err := json.Marshal(trade)
	if err != nil {
		logger.L.Error("marshaling trade event", zap.Error(err))
		return
	}

	event := Event{
		Type:      EventTradeUpdate,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	h.SendToUser(trade.SellerFrom.String(), event)
	h.SendToUser(trade.SellerTo.String(), event)
}

// NotifyOrder pushes an order update to its owner.
func (h *Hub) NotifyOrder(order *models.Order) {
	payload, err := json.Marshal(order)
	if err != nil {
		logger.L.Error("marshaling order event", zap.Error(err))
		return
	}

	h.SendToUser(order.UserID.String(), Event{
		Type:      EventOrderUpdate,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// Shutdown closes every connection and stops the hub.
func (h *Hub) Shutdown() {
	h.cancel()

	h.clientsMutex.Lock()
	for _, client := range h.clients {
		client.conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.clientsMutex.Unlock()

	h.userMutex.Lock()
	h.userClients = make(map[string]map[uuid.UUID]bool)
	h.userMutex.Unlock()
}
