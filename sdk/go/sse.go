package wsdecksdk

import (
	"encoding/json"
	"slices"
)

type ServerSentEventType string

const (
	ServerSentEventTypePing  ServerSentEventType = "ping"
	ServerSentEventTypeData  ServerSentEventType = "data"
	ServerSentEventTypeError ServerSentEventType = "error"
)

var ServerSentEventTypes = []ServerSentEventType{ServerSentEventTypeData, ServerSentEventTypeError, ServerSentEventTypePing}

func (t ServerSentEventType) Valid() bool { return slices.Contains(ServerSentEventTypes, t) }

func (t ServerSentEventType) MarshalText() ([]byte, error) {
	return marshalEnum("ServerSentEventType", t, ServerSentEventTypes)
}

func (t *ServerSentEventType) UnmarshalText(b []byte) error {
	return unmarshalEnum("ServerSentEventType", b, ServerSentEventTypes, t)
}

// ServerSentEvent carries an opaque payload; its shape depends on the stream.
type ServerSentEvent struct {
	Type ServerSentEventType `json:"type"`
	Data json.RawMessage     `json:"data"`
}
