package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"design-companion-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	clusterChannel  = "cluster_events"
	broadcastTarget = "*"
)

// Envelope is the frame every push uses.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterMessage struct {
	Origin         string          `json:"origin"`
	TargetClientID string          `json:"target_client_id"`
	Message        json.RawMessage `json:"message"`
}

// Hub fans messages out to the websocket connections of each client. With
// Redis configured, messages also reach connections held by other instances.
type Hub struct {
	id      string
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}

	mu sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ClientID] = append(h.clients[client.ClientID], client)
			h.mu.Unlock()
			h.logger.Info("HUB", "Connection registered", map[string]interface{}{"client_id": client.ClientID})

		case client := <-h.unregister:
			h.remove(client)

		case <-h.stop:
			h.mu.Lock()
			for id, conns := range h.clients {
				for _, c := range conns {
					close(c.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[client.ClientID]
	if !ok {
		return
	}
	for i, c := range conns {
		if c == client {
			h.clients[client.ClientID] = append(conns[:i], conns[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.ClientID]) == 0 {
		delete(h.clients, client.ClientID)
		h.logger.Info("HUB", "Client has no open connections", map[string]interface{}{"client_id": client.ClientID})
	}
}

// Connections reports how many local connections a client holds.
func (h *Hub) Connections(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID])
}

// Send pushes a typed message to every connection of clientID.
func (h *Hub) Send(clientID, msgType string, data interface{}) {
	raw, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("HUB", "Failed to encode message", map[string]interface{}{"type": msgType, "error": err.Error()})
		return
	}
	h.deliverLocal(clientID, raw)
	h.publishCluster(clientID, raw)
}

func (h *Hub) Broadcast(msgType string, data interface{}) {
	raw, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		return
	}
	h.deliverLocal(broadcastTarget, raw)
	h.publishCluster(broadcastTarget, raw)
}

func (h *Hub) deliverLocal(target string, raw []byte) {
	var slow []*Client

	h.mu.RLock()
	for id, conns := range h.clients {
		if target != broadcastTarget && id != target {
			continue
		}
		for _, c := range conns {
			select {
			case c.Send <- raw:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("HUB", "Send buffer full, dropping connection", map[string]interface{}{"client_id": c.ClientID})
		go func(c *Client) {
			select {
			case h.unregister <- c:
			case <-h.stop:
			}
		}(c)
	}
}

func (h *Hub) publishCluster(target string, raw []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(clusterMessage{Origin: h.id, TargetClientID: target, Message: raw})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("HUB", "Failed to publish to cluster channel", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToRedis delivers messages published by other instances. Every
// instance also receives its own publications; local connections were
// already served, so those are skipped by origin.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-h.stop:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("HUB", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.id {
				continue
			}
			h.deliverLocal(payload.TargetClientID, payload.Message)
		}
	}
}
