package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/devaloi/docsync/internal/registry"
)

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ListDocuments returns all documents with live editing rooms and their
// connection counts. Document metadata itself lives elsewhere; this is
// registry introspection only.
func ListDocuments(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		rooms := reg.ListRooms()
		json.NewEncoder(w).Encode(rooms)
	}
}

// DocumentInfo returns the live room for a document, 404 if nobody has it open.
func DocumentInfo(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if id == "" {
			http.Error(w, `{"error":"document id required"}`, http.StatusBadRequest)
			return
		}

		info := reg.RoomInfo(id)
		if info == nil {
			http.Error(w, `{"error":"no open room for document"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	}
}
