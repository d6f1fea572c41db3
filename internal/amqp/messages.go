package amqp

import (
	"encoding/json"
	"time"
)

// FilterEventMessage describes one dashboard interaction. It carries the
// resulting filter state so consumers never need the session itself.
type FilterEventMessage struct {
	SessionID   string    `json:"session_id"`
	Kind        string    `json:"kind"`
	Selected    []string  `json:"selected"`
	SelectAll   bool      `json:"select_all"`
	VisibleRows int       `json:"visible_rows"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewFilterEventMessage stamps the message with the current time.
func NewFilterEventMessage(sessionID, kind string, selected []string, selectAll bool, visibleRows int) *FilterEventMessage {
	if selected == nil {
		selected = []string{}
	}
	return &FilterEventMessage{
		SessionID:   sessionID,
		Kind:        kind,
		Selected:    selected,
		SelectAll:   selectAll,
		VisibleRows: visibleRows,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FilterEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FilterEventMessageFromJSON creates a message from JSON bytes
func FilterEventMessageFromJSON(data []byte) (*FilterEventMessage, error) {
	var msg FilterEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
