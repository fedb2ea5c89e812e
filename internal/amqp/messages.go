package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by ledger change messages.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionImport   = "import"
	ActionReorder  = "reorder"
	ActionPayment  = "payment"
	ActionSettings = "settings"
)

// LedgerChangedMessage announces that a new snapshot generation exists.
// It carries only the generation and what kind of change produced it;
// consumers fetch the snapshot itself from storage, so stale messages
// are harmless.
type LedgerChangedMessage struct {
	Generation   int64     `json:"generation"`
	Action       string    `json:"action"`
	InvestmentID string    `json:"investment_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change message stamped with the
// current time.
func NewLedgerChangedMessage(generation int64, action, investmentID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Generation:   generation,
		Action:       action,
		InvestmentID: investmentID,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LedgerDueMessage announces that an interest period of a position has
// come due. Published by the reminder scan for downstream notifiers.
type LedgerDueMessage struct {
	InvestmentID string    `json:"investment_id"`
	Ticket       string    `json:"ticket"`
	Source       string    `json:"source"`
	Period       int       `json:"period"`
	DueDate      string    `json:"due_date"`
	Amount       int64     `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *LedgerDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerDueMessageFromJSON creates a message from JSON bytes
func LedgerDueMessageFromJSON(data []byte) (*LedgerDueMessage, error) {
	var msg LedgerDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
