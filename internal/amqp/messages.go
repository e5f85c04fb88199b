package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to push the current snapshot to the
// configured sync target. The message carries no ledger data; the worker
// reads the snapshot itself, so a burst of requests collapses into pushes of
// whatever state is current when each one is handled.
type SyncRequestMessage struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Request reasons.
const (
	ReasonManual   = "manual"
	ReasonMutation = "mutation"
)

func NewSyncRequestMessage(reason string) *SyncRequestMessage {
	return &SyncRequestMessage{
		Reason:      reason,
		RequestedAt: time.Now(),
	}
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
