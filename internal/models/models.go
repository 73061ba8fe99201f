package models

// Message represents a WebSocket message
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

// Event types broadcast on the hub.
const (
	EventParentActivated = "parent.activated"
	EventChildCreated    = "child.created"
)
