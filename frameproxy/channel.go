// Package frameproxy implements §4.7's cross-frame owner-delegation
// protocol: a parent-side multiplexer (FrameProxy) serving children that
// cannot themselves claim ownership of certain UUIDs, plus the child-side
// Client that speaks the same wire messages.
package frameproxy

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// Source identifies the sender of a Message — a window/frame reference on
// the host platform. The zero value never matches a registered child.
type Source any

// Message is one wire message of §6's cross-frame protocol: an
// object-shaped payload plus the identity of whoever sent it (used for the
// §4.7 PeerOrigin security check).
type Message struct {
	From Source
	Body map[string]any
}

// Channel abstracts the host's message-passing primitive (§6:
// "postMessage(object), addEventListener('message', handler), and a way to
// identify the sender"). Send posts body to the peer at dst; Receive
// registers a handler invoked for every inbound Message.
type Channel interface {
	Send(dst Source, body map[string]any) error
	Receive(handler func(Message))
	Close() error
}

// WebSocketChannel is the default non-test Channel, carrying wire messages
// as JSON text frames over a websocket connection. The peer at the other
// end of the connection is its own Source — a websocket.Conn has exactly
// one remote party, so Send ignores dst.
type WebSocketChannel struct {
	conn *websocket.Conn

	mu sync.Mutex
}

// NewWebSocketChannel wraps an already-established websocket connection
// (accepted via a websocket.Upgrader, or opened via websocket.Dialer) as a
// Channel.
func NewWebSocketChannel(conn *websocket.Conn) *WebSocketChannel {
	return &WebSocketChannel{conn: conn}
}

func (w *WebSocketChannel) Send(_ Source, body map[string]any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive starts a background read loop and returns immediately, matching
// the Bus/busChannel contract FrameProxy and Client both rely on in their
// constructors. The loop runs until the connection closes, invoking handler
// for each decoded message.
func (w *WebSocketChannel) Receive(handler func(Message)) {
	go func() {
		for {
			_, data, err := w.conn.ReadMessage()
			if err != nil {
				return
			}
			var body map[string]any
			if json.Unmarshal(data, &body) != nil {
				continue
			}
			handler(Message{From: w.conn.RemoteAddr(), Body: body})
		}
	}()
}

func (w *WebSocketChannel) Close() error {
	return w.conn.Close()
}

// errNotConnected reports an operation attempted on a channel with no live
// connection.
var errNotConnected = errors.New("frameproxy: channel not connected")
