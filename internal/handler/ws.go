package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devaloi/docsync/internal/registry"
	"github.com/devaloi/docsync/internal/session"
	"github.com/devaloi/docsync/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles WebSocket upgrade requests and starts a session. The
// optional user query param is an identity tag issued upstream; it is
// trusted as-is and used only for logging.
func ServeWS(reg *registry.Registry, st store.Store, storageTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			user = "anonymous"
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}

		s := session.New(reg, st, conn, user, storageTimeout)
		go s.ReadPump()
		go s.WritePump()
	}
}
