package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/devaloi/docsync/internal/domain"
	"github.com/devaloi/docsync/internal/registry"
	"github.com/devaloi/docsync/internal/testutil"
)

func newRouter(reg *registry.Registry, st *testutil.MockStore) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", Health()).Methods(http.MethodGet)
	r.HandleFunc("/api/documents", ListDocuments(reg)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id}", DocumentInfo(reg)).Methods(http.MethodGet)
	r.HandleFunc("/ws", ServeWS(reg, st, 2*time.Second))
	return r
}

func TestHealth(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	Health()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %s", body["status"])
	}
}

func TestListDocumentsEmpty(t *testing.T) {
	t.Parallel()
	reg := registry.New(100)
	go reg.Run()
	defer reg.Stop()

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	w := httptest.NewRecorder()
	ListDocuments(reg)(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var rooms []domain.RoomInfo
	json.NewDecoder(w.Body).Decode(&rooms)
	if len(rooms) != 0 {
		t.Errorf("expected no rooms, got %d", len(rooms))
	}
}

func TestDocumentInfoNotFound(t *testing.T) {
	t.Parallel()
	reg := registry.New(100)
	go reg.Run()
	defer reg.Stop()

	st := testutil.NewMockStore()
	server := httptest.NewServer(newRouter(reg, st))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/documents/nonexistent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDocumentInfoOpenRoom(t *testing.T) {
	t.Parallel()
	reg := registry.New(100)
	go reg.Run()
	defer reg.Stop()

	st := testutil.NewMockStore()
	server := httptest.NewServer(newRouter(reg, st))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?user=alice"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","doc":"doc1"}`))
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get(server.URL + "/api/documents/doc1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var info domain.RoomInfo
	json.NewDecoder(resp.Body).Decode(&info)
	if info.Doc != "doc1" {
		t.Errorf("expected doc1, got %q", info.Doc)
	}
	if info.Connections != 1 {
		t.Errorf("expected 1 connection, got %d", info.Connections)
	}
}

func TestWSUpgradeAndJoin(t *testing.T) {
	t.Parallel()
	reg := registry.New(100)
	go reg.Run()
	defer reg.Stop()

	st := testutil.NewMockStore()
	server := httptest.NewServer(ServeWS(reg, st, 2*time.Second))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?user=alice"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","doc":"doc1"}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]interface{}
	json.Unmarshal(data, &msg)
	if msg["type"] != "loaded" {
		t.Errorf("expected loaded as first message, got %v", msg["type"])
	}
}

func TestWSUpgradeWithoutUser(t *testing.T) {
	t.Parallel()
	reg := registry.New(100)
	go reg.Run()
	defer reg.Stop()

	st := testutil.NewMockStore()
	server := httptest.NewServer(ServeWS(reg, st, 2*time.Second))
	defer server.Close()

	// Identity is optional; anonymous connections are accepted.
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}
