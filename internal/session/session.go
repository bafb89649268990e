package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devaloi/docsync/internal/domain"
	"github.com/devaloi/docsync/internal/registry"
	"github.com/devaloi/docsync/internal/store"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Rich-text deltas and full
	// save payloads can be large.
	maxMessageSize = 1 << 20
)

// ErrAlreadyAttached is reported when a connection sends a second join.
var ErrAlreadyAttached = errors.New("already attached to a document")

// Session is one client's attachment to the synchronization service.
// It moves through three states: unattached (doc == ""), attached
// (doc set by a successful join), and closed (read pump returned).
// There is no way back to unattached; a session serves one room.
type Session struct {
	registry *registry.Registry
	store    store.Store
	conn     *websocket.Conn
	send     chan []byte
	id       string
	user     string
	doc      string
	timeout  time.Duration
}

// New creates a Session for an upgraded WebSocket connection. The user tag
// is trusted as-is; identity checks happen upstream.
func New(reg *registry.Registry, st store.Store, conn *websocket.Conn, user string, storageTimeout time.Duration) *Session {
	return &Session{
		registry: reg,
		store:    st,
		conn:     conn,
		send:     make(chan []byte, 256),
		id:       uuid.NewString(),
		user:     user,
		timeout:  storageTimeout,
	}
}

// ID returns the session's connection handle, unique per attachment.
func (s *Session) ID() string {
	return s.id
}

// User returns the identity tag supplied at connect time.
func (s *Session) User() string {
	return s.user
}

// Send queues a message to be sent to the WebSocket client.
func (s *Session) Send(data []byte) {
	select {
	case s.send <- data:
	default:
		// Client send buffer full, drop message.
		log.Printf("session %s (%s): send buffer full, dropping message", s.id, s.user)
	}
}

// ReadPump reads messages from the WebSocket connection and dispatches them.
// It owns the session's state: all transitions happen on this goroutine.
func (s *Session) ReadPump() {
	defer func() {
		if s.doc != "" {
			s.registry.Leave(s.doc, s)
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("session %s (%s): read error: %v", s.id, s.user, err)
			}
			return
		}
		s.handleMessage(data)
	}
}

// WritePump writes messages from the send channel to the WebSocket connection.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) handleMessage(data []byte) {
	msg, err := domain.DecodeMessage(data)
	if err != nil {
		s.sendError("invalid JSON")
		return
	}

	switch msg.Type {
	case domain.MsgJoin:
		s.handleJoin(msg)

	case domain.MsgEdit:
		if s.doc == "" {
			s.sendError("join a document first")
			return
		}
		if len(msg.Delta) == 0 {
			s.sendError("delta required")
			return
		}
		// Deltas are relayed verbatim and never persisted; durability
		// only comes from an explicit save.
		em := domain.EditMessage{Type: domain.MsgEditReceived, Doc: s.doc, Delta: msg.Delta}
		if out, err := domain.Encode(em); err == nil {
			s.registry.Broadcast(s.doc, s, out)
		}

	case domain.MsgSave:
		if s.doc == "" {
			s.sendError("join a document first")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.store.Save(ctx, s.doc, msg.Content)
		cancel()
		if err != nil {
			log.Printf("session %s: save %s: %v", s.id, s.doc, err)
			s.sendError("save failed: storage unavailable")
			return
		}
		// Save is a checkpoint, not a sync event: no broadcast.

	default:
		s.sendError("unknown message type: " + msg.Type)
	}
}

func (s *Session) handleJoin(msg domain.Message) {
	if s.doc != "" {
		s.sendError(ErrAlreadyAttached.Error())
		return
	}
	if msg.Doc == "" {
		s.sendError("document id required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	doc, err := s.store.LoadOrCreate(ctx, msg.Doc)
	cancel()
	if err != nil {
		// The session stays unattached; the client may retry join.
		if errors.Is(err, store.ErrInvalidID) {
			s.sendError("document id required")
			return
		}
		log.Printf("session %s: load %s: %v", s.id, msg.Doc, err)
		s.sendError("join failed: storage unavailable")
		return
	}

	if !s.registry.Join(doc.ID, s) {
		// Refused admission (room cap): stay unattached so the client
		// may retry.
		s.sendError("join failed: max open documents reached")
		return
	}
	s.doc = doc.ID

	// Current content goes only to the joining connection.
	loaded := domain.LoadedMessage{
		Type:    domain.MsgLoaded,
		Doc:     doc.ID,
		Name:    doc.Name,
		Content: doc.Content,
	}
	if out, err := domain.Encode(loaded); err == nil {
		s.Send(out)
	}
}

func (s *Session) sendError(message string) {
	errMsg := domain.ErrorMessage{Type: domain.MsgError, Message: message}
	if data, err := domain.Encode(errMsg); err == nil {
		s.Send(data)
	}
}
