package websocket

import (
	"encoding/json"
	"sync"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/service"
	"github.com/ikkim/must-canteen/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	// Messages a client may send per second before being ignored.
	maxMessagesPerSecond = 10

	// Buffered outgoing events per connection.
	sendBufferSize = 256
)

// Event types pushed to clients.
const (
	EventNotice   = "notice"
	EventNavigate = "navigate"
	EventPong     = "pong"
)

// Navigation targets after identity transitions.
const (
	PathLogin = "/login"
	PathHome  = "/"
)

// Event is the envelope written to a device's connections.
type Event struct {
	Type    string             `json:"type"`
	Notice  *model.Notice      `json:"notice,omitempty"`
	Path    string             `json:"path,omitempty"`
	Profile *model.UserProfile `json:"profile,omitempty"`
}

// ClientMessage is what a client may send.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client is one websocket connection of a device.
type Client struct {
	Hub      *Hub
	Conn     *Conn
	DeviceID string
	Send     chan []byte
	limiter  *rate.Limiter
}

// NewClient wraps conn for deviceID.
func NewClient(hub *Hub, conn *Conn, deviceID string) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		DeviceID: deviceID,
		Send:     make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(rate.Limit(maxMessagesPerSecond), maxMessagesPerSecond),
	}
}

// Hub fans session events out to every connection of a device.
type Hub struct {
	// device id -> connections (one device may have several tabs open)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan *deviceMessage
	quit       chan struct{}

	mu sync.RWMutex
}

type deviceMessage struct {
	DeviceID string
	Message  []byte
	// Only, when set, restricts delivery to one connection of the device.
	Only *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan *deviceMessage, 1024),
		quit:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.DeviceID] = append(h.clients[client.DeviceID], client)
			total := len(h.clients[client.DeviceID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"device_id":   client.DeviceID,
				"connections": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.deliver:
			h.mu.RLock()
			clients := append([]*Client(nil), h.clients[message.DeviceID]...)
			h.mu.RUnlock()

			for _, client := range clients {
				if message.Only != nil && message.Only != client {
					continue
				}
				select {
				case client.Send <- message.Message:
				default:
					// slow reader, drop the connection
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"device_id": message.DeviceID,
					})
				}
			}

		case <-h.quit:
			h.mu.Lock()
			for id, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.DeviceID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(clients))
	found := false
	for _, c := range clients {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.DeviceID)
	} else {
		h.clients[client.DeviceID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"device_id":   client.DeviceID,
		"connections": len(kept),
	})
}

// Stop ends Run and closes every connection's send channel.
func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// IsDeviceOnline reports whether the device has at least one open connection.
func (h *Hub) IsDeviceOnline(deviceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[deviceID]
	return ok
}

// SendToDevice queues event for every connection of deviceID. It never blocks;
// events are dropped when the hub is saturated.
func (h *Hub) SendToDevice(deviceID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", err, map[string]interface{}{
			"device_id": deviceID,
			"type":      event.Type,
		})
		return
	}

	h.enqueue(&deviceMessage{DeviceID: deviceID, Message: data})
}

func (h *Hub) enqueue(message *deviceMessage) {
	select {
	case h.deliver <- message:
	default:
		logger.Warn("Delivery channel full, event dropped", map[string]interface{}{
			"device_id": message.DeviceID,
		})
	}
}

// NotifierFor returns a notifier that pushes notices to deviceID.
func (h *Hub) NotifierFor(deviceID string) service.Notifier {
	return deviceNotifier{hub: h, deviceID: deviceID}
}

// NavigatorFor returns a navigator that pushes redirects to deviceID.
func (h *Hub) NavigatorFor(deviceID string) service.Navigator {
	return deviceNavigator{hub: h, deviceID: deviceID}
}

type deviceNotifier struct {
	hub      *Hub
	deviceID string
}

func (n deviceNotifier) Notify(notice model.Notice) {
	n.hub.SendToDevice(n.deviceID, Event{Type: EventNotice, Notice: &notice})
}

type deviceNavigator struct {
	hub      *Hub
	deviceID string
}

// IdentityChanged sends the client home after a login and to the login page after logout.
func (n deviceNavigator) IdentityChanged(profile *model.UserProfile) {
	event := Event{Type: EventNavigate, Path: PathLogin}
	if profile != nil {
		event.Path = PathHome
		event.Profile = profile
	}
	n.hub.SendToDevice(n.deviceID, event)
}

// HandleClientMessage answers pings. Anything else is ignored.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if !client.limiter.Allow() {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"device_id": client.DeviceID,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"device_id": client.DeviceID,
			"error":     err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		data, _ := json.Marshal(Event{Type: EventPong})
		h.enqueue(&deviceMessage{DeviceID: client.DeviceID, Message: data, Only: client})
	}
}
