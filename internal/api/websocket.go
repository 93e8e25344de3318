package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local control surface; any origin may connect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message types pushed to and accepted from WebSocket clients.
const (
	typeStatus        = "status"
	typeToggle        = "toggle"
	typeStatusRequest = "status_request"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type togglePayload struct {
	Slot   int    `json:"slot"` // 1-based
	Action string `json:"action"`
}

// WSManager fans status updates out to connected clients and accepts
// toggle commands from them.
type WSManager struct {
	server     *Server
	clients    map[*wsClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	shutdown   chan struct{}
}

type wsClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			m.clientsMu.Unlock()
			log.Printf("WS: new client from %s, total %d", client.ip, len(m.clients))

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				log.Printf("WS: client from %s gone, total %d", client.ip, len(m.clients))
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.fanOut(message)

		case <-m.shutdown:
			return
		}
	}
}

func (m *WSManager) fanOut(message []byte) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(m.clients, client)
		}
	}
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: failed to upgrade connection: %v", err)
		return
	}

	client := &wsClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	m.register <- client

	go client.writePump()
	go client.readPump()

	// New clients get the current state right away.
	if msg, err := m.statusMessage(); err == nil {
		client.send <- msg
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *wsClient) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *wsClient) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: invalid message format: %v", err)
		return
	}

	switch msg.Type {
	case typeToggle:
		var payload togglePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Printf("WS: invalid toggle payload: %v", err)
			return
		}

		log.Printf("WS: toggle %s on slot %d from %s", payload.Action, payload.Slot, c.ip)

		// Toggles capture scene state over the network; keep them off
		// the read pump.
		go func() {
			var err error
			switch payload.Action {
			case "pan":
				err = c.manager.server.eng.TogglePan(payload.Slot - 1)
			case "zoom":
				err = c.manager.server.eng.ToggleZoom(payload.Slot - 1)
			default:
				log.Printf("WS: unknown toggle action %q", payload.Action)
				return
			}
			if err != nil {
				log.Printf("WS: toggle failed: %v", err)
			}
		}()

	case typeStatusRequest:
		if msg, err := c.manager.statusMessage(); err == nil {
			c.send <- msg
		}
	}
}

func (m *WSManager) statusMessage() ([]byte, error) {
	payload, err := json.Marshal(m.server.statusPayload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(wsMessage{Type: typeStatus, Payload: payload})
}

// BroadcastStatus pushes the current status to every client.
func (m *WSManager) BroadcastStatus() {
	msg, err := m.statusMessage()
	if err != nil {
		log.Printf("WS: failed to marshal status broadcast: %v", err)
		return
	}
	m.broadcast <- msg
}
