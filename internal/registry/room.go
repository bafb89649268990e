package registry

import "sync"

// Conn is the interface the registry expects from an attached connection.
type Conn interface {
	ID() string
	Send(data []byte)
}

// payload is one relayed frame plus the connection it came from.
type payload struct {
	data   []byte
	origin Conn
}

// Room tracks the set of connections attached to one document and relays
// payloads between them. It holds no document content: the authoritative
// copy always comes from the store on join.
type Room struct {
	doc      string
	conns    map[Conn]bool
	mu       sync.RWMutex
	relay    chan payload
	quit     chan struct{}
	stopOnce sync.Once
}

// NewRoom creates a room for the given document id.
func NewRoom(doc string) *Room {
	return &Room{
		doc:   doc,
		conns: make(map[Conn]bool),
		relay: make(chan payload, 256),
		quit:  make(chan struct{}),
	}
}

// Run starts the room's relay loop. Should be called as a goroutine.
func (r *Room) Run() {
	for {
		select {
		case p := <-r.relay:
			r.mu.RLock()
			for c := range r.conns {
				if c != p.origin {
					c.Send(p.data)
				}
			}
			r.mu.RUnlock()
		case <-r.quit:
			return
		}
	}
}

// Stop signals the room's relay loop to exit. Safe to call more than once:
// registry shutdown and empty-room reclamation can race to stop the same room.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Join adds a connection to the room. Joining twice has the effect of once.
func (r *Room) Join(c Conn) {
	r.mu.Lock()
	r.conns[c] = true
	r.mu.Unlock()
}

// Leave removes a connection from the room. Idempotent.
func (r *Room) Leave(c Conn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

// Relay queues data for delivery to every member except origin.
func (r *Room) Relay(origin Conn, data []byte) {
	r.relay <- payload{data: data, origin: origin}
}

// ConnCount returns the number of attached connections.
func (r *Room) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Doc returns the document id this room serves.
func (r *Room) Doc() string {
	return r.doc
}
