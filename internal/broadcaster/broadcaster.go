package broadcaster

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chaingraph-backend/internal/channels"
	"chaingraph-backend/internal/utils"
	"chaingraph-backend/models"
)

// Config holds broadcaster configuration
type Config struct {
	MaxClients       int           `json:"maxClients"`       // Maximum clients (default: 1000)
	BufferSize       int           `json:"bufferSize"`       // Buffer size per client (default: 256)
	SnapshotInterval time.Duration `json:"snapshotInterval"` // Periodic snapshot push (default: 10s)
}

// DefaultConfig returns default broadcaster configuration
func DefaultConfig() Config {
	return Config{
		MaxClients:       1000,
		BufferSize:       256,
		SnapshotInterval: 10 * time.Second,
	}
}

// Client represents a WebSocket client
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// SnapshotProvider supplies the current graph summary pushed to clients
type SnapshotProvider interface {
	Snapshot() interface{}
}

// Broadcaster manages WebSocket clients and pushes graph updates to them
type Broadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	config     Config
	channels   *channels.Channels
	snapshots  SnapshotProvider
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster(config Config, ch *channels.Channels, snapshots SnapshotProvider) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, utils.DefaultGetChannelBufferSize("ClientRegister", 100)),
		unregister: make(chan *Client, utils.DefaultGetChannelBufferSize("ClientUnregister", 100)),
		config:     config,
		channels:   ch,
		snapshots:  snapshots,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Graph feed is public, same as the REST API
			},
		},
	}
}

// Start begins the broadcaster's main loop
func (b *Broadcaster) Start(ctx context.Context) {
	snapshotTicker := time.NewTicker(b.config.SnapshotInterval)
	defer snapshotTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-b.register:
			b.handleClientRegistration(client)

		case client := <-b.unregister:
			b.handleClientUnregistration(client)

		case update := <-b.channels.GraphUpdates:
			b.broadcastUpdate(update)

		case snapshot := <-b.channels.Snapshots:
			b.broadcast("snapshot", snapshot)

		case <-snapshotTicker.C:
			if b.GetClientCount() > 0 {
				b.broadcast("snapshot", b.snapshots.Snapshot())
			}
		}
	}
}

// handleClientRegistration handles new client registration
func (b *Broadcaster) handleClientRegistration(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.clients) >= b.config.MaxClients {
		close(client.send)
		return
	}

	b.clients[client] = true
	go client.writePump()

	// New clients get a snapshot immediately
	data, err := json.Marshal(map[string]interface{}{
		"type": "snapshot",
		"data": b.snapshots.Snapshot(),
	})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(b.clients, client)
	}

	utils.LogDebug("BROADCASTER", "Client %s connected (%d total)", client.id, len(b.clients))
}

// handleClientUnregistration handles client disconnection
func (b *Broadcaster) handleClientUnregistration(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.send)
		utils.LogDebug("BROADCASTER", "Client %s disconnected (%d total)", client.id, len(b.clients))
	}
}

// broadcastUpdate pushes one ingested block to all connected clients
func (b *Broadcaster) broadcastUpdate(update models.Update) {
	b.broadcast(string(update.Kind), update)
}

func (b *Broadcaster) broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": msgType,
		"data": payload,
	})
	if err != nil {
		utils.LogError("BROADCASTER", "Failed to marshal %s message: %v", msgType, err)
		return
	}

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full
			b.unregister <- client
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (b *Broadcaster) UpgradeConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.LogWarn("BROADCASTER", "WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   utils.DefaultGenerateID("client"),
		conn: conn,
		send: make(chan []byte, b.config.BufferSize),
	}

	b.register <- client
	go client.readPump(b.unregister)
}

// GetClientCount returns the current number of connected clients
func (b *Broadcaster) GetClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump(unregister chan<- *Client) {
	defer func() {
		unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// GetID returns the client's ID
func (c *Client) GetID() string {
	return c.id
}
