package registry

import (
	"log"
	"sync"

	"github.com/devaloi/docsync/internal/domain"
)

// joinRequest asks the registry to admit a connection into a document room.
// The outcome is reported on reply so the caller can observe refusal.
type joinRequest struct {
	Doc   string
	Conn  Conn
	reply chan bool
}

// leaveRequest asks the registry to remove a connection from a room.
type leaveRequest struct {
	Doc  string
	Conn Conn
}

// relayRequest routes a payload to everyone in a room except its origin.
type relayRequest struct {
	Doc    string
	Origin Conn
	Data   []byte
}

// Registry is the process-wide table of live document rooms. One instance
// exists per process, created at service start. Each room runs its own
// relay goroutine, so traffic on one document never stalls another.
type Registry struct {
	rooms    map[string]*Room
	mu       sync.RWMutex
	join     chan joinRequest
	leave    chan leaveRequest
	relay    chan relayRequest
	maxRooms int
	quit     chan struct{}
}

// New creates a new Registry allowing at most maxRooms open documents.
func New(maxRooms int) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		join:     make(chan joinRequest, 256),
		leave:    make(chan leaveRequest, 256),
		relay:    make(chan relayRequest, 256),
		maxRooms: maxRooms,
		quit:     make(chan struct{}),
	}
}

// Run starts the registry's event loop. Should be called as a goroutine.
func (g *Registry) Run() {
	for {
		select {
		case req := <-g.join:
			g.handleJoin(req)
		case req := <-g.leave:
			g.handleLeave(req)
		case req := <-g.relay:
			g.handleRelay(req)
		case <-g.quit:
			return
		}
	}
}

// Stop signals the registry's event loop to exit and stops all rooms.
func (g *Registry) Stop() {
	close(g.quit)
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.rooms {
		r.Stop()
	}
}

// Join admits conn into the room for doc, creating the room if absent.
// It reports whether the connection was admitted; joining a new document
// is refused once the registry is at its room cap or stopped. The caller
// must not consider itself attached unless Join returns true.
func (g *Registry) Join(doc string, conn Conn) bool {
	req := joinRequest{Doc: doc, Conn: conn, reply: make(chan bool, 1)}
	select {
	case g.join <- req:
	case <-g.quit:
		return false
	}
	select {
	case ok := <-req.reply:
		return ok
	case <-g.quit:
		return false
	}
}

// Leave queues a request to remove conn from the room for doc.
func (g *Registry) Leave(doc string, conn Conn) {
	g.leave <- leaveRequest{Doc: doc, Conn: conn}
}

// Broadcast queues data for delivery to every member of doc's room except
// origin. A broadcast for a document with no live room is a no-op.
func (g *Registry) Broadcast(doc string, origin Conn, data []byte) {
	g.relay <- relayRequest{Doc: doc, Origin: origin, Data: data}
}

// ListRooms returns info about all open documents.
func (g *Registry) ListRooms() []domain.RoomInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]domain.RoomInfo, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, domain.RoomInfo{
			Doc:         r.Doc(),
			Connections: r.ConnCount(),
		})
	}
	return rooms
}

// RoomInfo returns details about one open document, or nil if no room is live.
func (g *Registry) RoomInfo(doc string) *domain.RoomInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[doc]
	if !ok {
		return nil
	}
	return &domain.RoomInfo{
		Doc:         r.Doc(),
		Connections: r.ConnCount(),
	}
}

func (g *Registry) handleJoin(req joinRequest) {
	g.mu.Lock()
	r, ok := g.rooms[req.Doc]
	if !ok {
		if len(g.rooms) >= g.maxRooms {
			g.mu.Unlock()
			req.reply <- false
			return
		}
		r = NewRoom(req.Doc)
		g.rooms[req.Doc] = r
		go r.Run()
		log.Printf("room opened: %s", req.Doc)
	}
	g.mu.Unlock()
	r.Join(req.Conn)
	req.reply <- true
}

func (g *Registry) handleLeave(req leaveRequest) {
	g.mu.Lock()
	r, ok := g.rooms[req.Doc]
	if !ok {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	r.Leave(req.Conn)

	// Reclaim empty rooms.
	if r.ConnCount() == 0 {
		g.mu.Lock()
		// Double-check after acquiring write lock.
		if r.ConnCount() == 0 {
			r.Stop()
			delete(g.rooms, req.Doc)
			log.Printf("room reclaimed: %s", req.Doc)
		}
		g.mu.Unlock()
	}
}

func (g *Registry) handleRelay(req relayRequest) {
	g.mu.RLock()
	r, ok := g.rooms[req.Doc]
	g.mu.RUnlock()
	if !ok {
		// Messages racing a reclaimed room are dropped, not errors.
		return
	}
	r.Relay(req.Origin, req.Data)
}
