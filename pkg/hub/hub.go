// Package hub provides a thread-safe WebSocket broadcast hub for
// operator connections, using the idiomatic channel-based fan-out
// pattern. Outbound telemetry fans out to every client; inbound control
// and config messages are dispatched to callbacks.
package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/protocol"
)

// StatusFunc supplies the current rover status for connect greetings and
// status requests.
type StatusFunc func() protocol.StatusData

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to broadcast
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	stop chan struct{}

	// Mutex for the clients map (read-only access from outside)
	mu sync.RWMutex

	// Inbound dispatch
	cbMu      sync.RWMutex
	onControl func(*protocol.ControlData)
	onConfig  func(*protocol.ConfigData) error
	status    StatusFunc

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
}

// New creates a new Hub
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// OnControl sets the callback for incoming joystick samples. The
// callback must not block: it runs on the connection's read goroutine.
func (h *Hub) OnControl(callback func(control *protocol.ControlData)) {
	h.cbMu.Lock()
	h.onControl = callback
	h.cbMu.Unlock()
}

// OnConfig sets the callback for incoming parameter changes. A non-nil
// return is reported back to the sender as an error frame.
func (h *Hub) OnConfig(callback func(config *protocol.ConfigData) error) {
	h.cbMu.Lock()
	h.onConfig = callback
	h.cbMu.Unlock()
}

// OnStatus sets the supplier used for status frames.
func (h *Hub) OnStatus(fn StatusFunc) {
	h.cbMu.Lock()
	h.status = fn
	h.cbMu.Unlock()
}

// Run starts the hub's main loop
// This should be called in a goroutine
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("operator connected", "client", client.ID, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("operator disconnected", "client", client.ID, "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.enqueue(message) {
					h.messagesSent.Add(1)
					continue
				}
				// Client's buffer is full - they're too slow.
				// Close and remove them.
				client.closeSend()
				delete(h.clients, client)
				log.Warn("dropped slow operator client", "client", client.ID)
			}
			h.mu.Unlock()
		}
	}
}

// Stop halts the hub loop. Connected clients are torn down by their own
// read pumps when the server closes their connections.
func (h *Hub) Stop() {
	close(h.stop)
}

// Broadcast queues a frame for all connected clients. When the hub's
// queue is full the frame is dropped: telemetry is periodic and a
// fresher frame follows shortly.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Warn("broadcast queue full, dropping frame")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats contains hub statistics
type Stats struct {
	Clients          int    `json:"clients"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		Clients:          h.ClientCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
	}
}

// RegisterRoutes registers the WebSocket endpoint on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(h.handleConn))
}

// handleConn runs for the lifetime of one operator connection.
func (h *Hub) handleConn(conn *websocket.Conn) {
	client := NewClient(h, conn)

	// Greet with the current status so consoles can render immediately.
	h.replyStatus(client)

	client.Run()
}

// handleInbound processes one frame from an operator.
func (h *Hub) handleInbound(c *Client, data []byte) {
	h.messagesReceived.Add(1)

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Warn("malformed frame", "client", c.ID, "error", err)
		h.replyError(c, "malformed message")
		return
	}

	switch msg.Type {
	case protocol.TypeControl:
		control, err := msg.GetControlData()
		if err == nil {
			err = control.Validate()
		}
		if err != nil {
			log.Warn("rejected control message", "client", c.ID, "error", err)
			h.replyError(c, "invalid control message")
			return
		}
		h.cbMu.RLock()
		cb := h.onControl
		h.cbMu.RUnlock()
		if cb != nil {
			cb(control)
		}

	case protocol.TypeConfig:
		config, err := msg.GetConfigData()
		if err == nil {
			err = config.Validate()
		}
		if err == nil {
			h.cbMu.RLock()
			cb := h.onConfig
			h.cbMu.RUnlock()
			if cb != nil {
				err = cb(config)
			}
		}
		if err != nil {
			log.Warn("rejected config change", "client", c.ID, "error", err)
			h.replyError(c, err.Error())
			return
		}
		// Ack with a status frame reflecting the new configuration.
		h.replyStatus(c)

	case protocol.TypePing:
		var id string
		if ping, err := msg.GetPingData(); err == nil {
			id = ping.ID
		}
		if reply, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli()); err == nil {
			h.replyMessage(c, reply)
		}

	case protocol.TypeStatus:
		h.replyStatus(c)

	default:
		log.Warn("unknown message type", "client", c.ID, "type", msg.Type)
		h.replyError(c, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// statusSnapshot builds the status payload, always marked connected from
// the client's point of view.
func (h *Hub) statusSnapshot() protocol.StatusData {
	h.cbMu.RLock()
	fn := h.status
	h.cbMu.RUnlock()

	if fn == nil {
		return protocol.StatusData{Connected: true}
	}
	status := fn()
	status.Connected = true
	return status
}

func (h *Hub) replyStatus(c *Client) {
	msg, err := protocol.NewMessage(protocol.TypeStatus, h.statusSnapshot())
	if err != nil {
		return
	}
	h.replyMessage(c, msg)
}

func (h *Hub) replyError(c *Client, message string) {
	msg, err := protocol.NewErrorMessage(message)
	if err != nil {
		return
	}
	h.replyMessage(c, msg)
}

// replyMessage queues a frame for a single client. Full buffers drop the
// frame rather than block the read path.
func (h *Hub) replyMessage(c *Client, msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	if c.enqueue(data) {
		h.messagesSent.Add(1)
	}
}
