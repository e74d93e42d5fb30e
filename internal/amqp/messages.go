package amqp

import (
	"encoding/json"
	"time"
)

// DocumentChangedMessage announces that a mutation was applied to the
// document. It carries only the operation name and a timestamp; the
// worker reloads the document from storage, so the message never goes
// stale.
type DocumentChangedMessage struct {
	Op        string    `json:"op"`
	ChangedAt time.Time `json:"changedAt"`
}

func NewDocumentChangedMessage(op string) *DocumentChangedMessage {
	return &DocumentChangedMessage{
		Op:        op,
		ChangedAt: time.Now(),
	}
}

func (m *DocumentChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DocumentChangedMessageFromJSON(data []byte) (*DocumentChangedMessage, error) {
	var msg DocumentChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
