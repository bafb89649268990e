package domain

// Document is the durable record behind a collaborative editing session.
// Content is an opaque blob; the server stores and relays it without
// interpreting its structure.
type Document struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// RoomInfo describes one live editing room.
type RoomInfo struct {
	Doc         string `json:"doc"`
	Connections int    `json:"connections"`
}
