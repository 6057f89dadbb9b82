package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Actions sent by the server that are not task events.
const (
	ActionError = "error"
	ActionPong  = "pong"
	ActionHello = "hello"
)

// NewMessage encodes a message. It returns nil if payload can not be encoded.
func NewMessage(action string, payload interface{}) []byte {
	data, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return nil
	}
	return data
}

// NewErrorMessage encodes an error message for a single client.
func NewErrorMessage(text string) []byte {
	return NewMessage(ActionError, map[string]string{"message": text})
}
