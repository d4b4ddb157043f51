package amqp

import (
	"encoding/json"
	"time"

	"pantry/internal/core"
)

// TransactionRecordedMessage announces a durably recorded ledger transaction.
// It carries only identifying fields; consumers fetch the full transaction
// from the store when they need it.
type TransactionRecordedMessage struct {
	ID        string               `json:"id"`
	GroupID   string               `json:"groupId"`
	Type      core.TransactionType `json:"transactionType"`
	Timestamp time.Time            `json:"timestamp"`
}

func NewTransactionRecordedMessage(tx core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        tx.ID,
		GroupID:   tx.GroupID,
		Type:      tx.Type,
		Timestamp: tx.Time(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MembershipChangedMessage signals that a group's membership changed and that
// every cache entry scoped to the group must be dropped.
type MembershipChangedMessage struct {
	UserID    string    `json:"userId"`
	GroupID   string    `json:"groupId"`
	ChangedAt time.Time `json:"changedAt"`
}

func NewMembershipChangedMessage(userID, groupID string) *MembershipChangedMessage {
	return &MembershipChangedMessage{
		UserID:    userID,
		GroupID:   groupID,
		ChangedAt: time.Now(),
	}
}

func (m *MembershipChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MembershipChangedMessageFromJSON(data []byte) (*MembershipChangedMessage, error) {
	var msg MembershipChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
