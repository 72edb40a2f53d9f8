/*
Package live streams cooldown countdowns to the page over a WebSocket, so a rate-limited
button can show "wait N s" and re-enable itself without polling.
*/
package live

import "encoding/json"

// MessageType defines the type of a live message.
type MessageType string

const (
	// TypeCooldown carries the seconds left on one action's cooldown. 0 means ready.
	TypeCooldown MessageType = "cooldown"

	// TypeWatch is sent by the page to follow another action.
	TypeWatch MessageType = "watch"

	// TypeError reports a rejected inbound message.
	TypeError MessageType = "error"
)

// Message is the frame exchanged in both directions.
type Message struct {
	Type      MessageType `json:"type"`
	Action    string      `json:"action,omitempty"`
	Remaining int         `json:"remaining"`
	Code      int         `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
}

func (m Message) encode() ([]byte, error) {
	return json.Marshal(m)
}
