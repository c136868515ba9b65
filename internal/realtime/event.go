package realtime

import "encoding/json"

// EventType tags a change notification.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	// EventAll subscribes a hook to every event type.
	EventAll EventType = "*"
)

// Event is one tagged row-change notification as delivered on a table
// channel. Row carries the new row image for inserts and updates; OldRow
// carries the prior image for deletes.
type Event struct {
	Type   EventType      `json:"type"`
	Table  string         `json:"table"`
	Row    map[string]any `json:"row,omitempty"`
	OldRow map[string]any `json:"old_row,omitempty"`
}

// Encode marshals the event for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses a wire payload into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// ChannelFor returns the pub/sub channel name for a table subscription. An
// optional filter expression scopes the channel the way a server-side row
// filter would.
func ChannelFor(table, filter string) string {
	if filter == "" {
		return "table:" + table
	}
	return "table:" + table + ":" + filter
}
