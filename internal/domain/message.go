package domain

import "encoding/json"

// Message types.
const (
	MsgJoin         = "join"
	MsgLoaded       = "loaded"
	MsgEdit         = "edit"
	MsgEditReceived = "edit-received"
	MsgSave         = "save"
	MsgError        = "error"
)

// Message is the client-to-server protocol envelope.
type Message struct {
	Type    string          `json:"type"`
	Doc     string          `json:"doc,omitempty"`
	Delta   json.RawMessage `json:"delta,omitempty"`
	Content string          `json:"content,omitempty"`
}

// LoadedMessage carries the current document content, sent once to the
// joining connection only.
type LoadedMessage struct {
	Type    string `json:"type"`
	Doc     string `json:"doc"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// EditMessage relays an opaque delta to the other members of a room.
// The delta is never inspected or rewritten by the server.
type EditMessage struct {
	Type  string          `json:"type"`
	Doc   string          `json:"doc"`
	Delta json.RawMessage `json:"delta"`
}

// ErrorMessage reports an error to the client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeMessage deserializes JSON bytes into a Message.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}
