package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by transaction events.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionMaterialized = "materialized"
)

// TransactionEventMessage is a lightweight notification that a transaction
// changed. Consumers fetch the full record from the store by id; the message
// carries only what the audit feed needs.
type TransactionEventMessage struct {
	TransactionID string    `json:"transaction_id"`
	OwnerID       string    `json:"owner_id"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEventMessage builds an event stamped with the current time.
func NewTransactionEventMessage(transactionID, ownerID, action string) *TransactionEventMessage {
	return &TransactionEventMessage{
		TransactionID: transactionID,
		OwnerID:       ownerID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
