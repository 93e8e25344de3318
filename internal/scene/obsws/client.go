// Package obsws implements the scene.Graph adapter against a live OBS
// instance over the obs-websocket v5 protocol.
package obsws

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"panzoomer/internal/scene"
)

const rpcVersion = 1

// Message opcodes of the obs-websocket v5 framing.
const (
	opHello      = 0
	opIdentify   = 1
	opIdentified = 2
	opEvent      = 5
	opRequest    = 6
	opResponse   = 7
)

// Request status codes we act on.
const statusResourceNotFound = 600

// Client is a synchronous obs-websocket v5 client. Requests are
// serialized under one mutex; the engine's tick model never needs
// concurrent requests.
type Client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
	closed bool
}

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type outEnvelope struct {
	Op int         `json:"op"`
	D  interface{} `json:"d"`
}

type helloData struct {
	ObsWebSocketVersion string `json:"obsWebSocketVersion"`
	RPCVersion          int    `json:"rpcVersion"`
	Authentication      *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type identifyData struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

type requestData struct {
	RequestType string      `json:"requestType"`
	RequestID   string      `json:"requestId"`
	RequestData interface{} `json:"requestData,omitempty"`
}

type responseData struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// Dial connects to an obs-websocket endpoint (host:port) and performs
// the Hello/Identify handshake, authenticating when the server demands
// it.
func Dial(addr, password string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}
	log.Printf("OBS: connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial obs-websocket: %w", err)
	}

	c := &Client{conn: conn}
	if err := c.handshake(password); err != nil {
		conn.Close()
		return nil, err
	}

	log.Printf("OBS: connected and identified")
	return c, nil
}

func (c *Client) handshake(password string) error {
	c.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer c.conn.SetReadDeadline(time.Time{})

	var env envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("read Hello: %w", err)
	}
	if env.Op != opHello {
		return fmt.Errorf("expected Hello (op %d), got op %d", opHello, env.Op)
	}

	var hello helloData
	if err := json.Unmarshal(env.D, &hello); err != nil {
		return fmt.Errorf("decode Hello: %w", err)
	}

	ident := identifyData{RPCVersion: rpcVersion}
	if hello.Authentication != nil {
		if password == "" {
			return fmt.Errorf("obs-websocket requires a password but none is configured")
		}
		ident.Authentication = authResponse(password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}

	if err := c.conn.WriteJSON(outEnvelope{Op: opIdentify, D: ident}); err != nil {
		return fmt.Errorf("send Identify: %w", err)
	}

	if err := c.conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("read Identified: %w", err)
	}
	if env.Op != opIdentified {
		return fmt.Errorf("identification rejected (op %d); check the websocket password", env.Op)
	}
	return nil
}

// authResponse derives the obs-websocket authentication string:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

// call issues one request and decodes its response into out (which may
// be nil for fire-and-forget writes).
func (c *Client) call(requestType string, req, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return scene.ErrDisconnected
	}

	c.nextID++
	id := strconv.FormatUint(c.nextID, 10)

	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err := c.conn.WriteJSON(outEnvelope{Op: opRequest, D: requestData{
		RequestType: requestType,
		RequestID:   id,
		RequestData: req,
	}})
	if err != nil {
		c.drop()
		return scene.ErrDisconnected
	}

	// Read until our response; any interleaved non-response frames
	// are skipped.
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.drop()
			return scene.ErrDisconnected
		}
		if env.Op != opResponse {
			continue
		}

		var resp responseData
		if err := json.Unmarshal(env.D, &resp); err != nil {
			return fmt.Errorf("%s: decode response: %w", requestType, err)
		}
		if resp.RequestID != id {
			continue
		}

		if !resp.RequestStatus.Result {
			if resp.RequestStatus.Code == statusResourceNotFound {
				return fmt.Errorf("%s: %s: %w", requestType, resp.RequestStatus.Comment, scene.ErrSourceNotFound)
			}
			return fmt.Errorf("%s failed (code %d): %s", requestType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
		}

		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("%s: decode response data: %w", requestType, err)
			}
		}
		return nil
	}
}

// Reconnect re-establishes a dropped connection with a fresh
// handshake. No-op while still connected; fails permanently once Close
// has been called.
func (c *Client) Reconnect(addr, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return scene.ErrDisconnected
	}
	if c.conn != nil {
		return nil
	}

	u := url.URL{Scheme: "ws", Host: addr, Path: "/"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial obs-websocket: %w", err)
	}

	c.conn = conn
	if err := c.handshake(password); err != nil {
		conn.Close()
		c.conn = nil
		return err
	}

	log.Printf("OBS: reconnected and identified")
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Connected reports whether the websocket is still usable.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.closed
}

// Close shuts the connection down. Safe to call twice.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
		c.conn = nil
	}
}
