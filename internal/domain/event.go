package domain

import "encoding/json"

const (
	EventTypeNowPlaying  = "NOW_PLAYING"
	EventTypeControl     = "CONTROL"
	EventTypeMemberJoin  = "MEMBER_JOIN"
	EventTypeMemberLeave = "MEMBER_LEAVE"
	EventTypeConnected   = "CONNECTED"
)

// Event is the unit relayed through pub/sub and pushed to viewer
// connections. Transient, never persisted.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewEvent(eventType string, payload any, timestamp int64) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Type:      eventType,
		Payload:   raw,
		Timestamp: timestamp,
	}, nil
}
