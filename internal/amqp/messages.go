package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entities that can be mirrored to the cloud document store.
const (
	EntityTransaction   = "transaction"
	EntityCategory      = "category"
	EntityPaymentMethod = "paymentMethod"
	EntityProject       = "project"
)

// Mirror operations.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// MirrorMessage asks the worker to mirror one local record to the cloud
// store. It carries only the entity kind, operation and id; the worker
// fetches the current record from the local database, so a message can
// never carry stale field values.
type MirrorMessage struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMirrorMessage creates a mirror message stamped with the current time.
func NewMirrorMessage(entity, op, id string) *MirrorMessage {
	return &MirrorMessage{
		Entity:    entity,
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// Validate checks entity and op against the known sets.
func (m *MirrorMessage) Validate() error {
	switch m.Entity {
	case EntityTransaction, EntityCategory, EntityPaymentMethod, EntityProject:
	default:
		return fmt.Errorf("unknown entity %q", m.Entity)
	}
	switch m.Op {
	case OpUpsert, OpDelete:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	if m.ID == "" {
		return fmt.Errorf("empty id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes.
func (m *MirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MirrorMessageFromJSON parses a message from JSON bytes.
func MirrorMessageFromJSON(data []byte) (*MirrorMessage, error) {
	var msg MirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
