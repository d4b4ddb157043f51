package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	TypeAdd     TransactionType = "add"
	TypeRemove  TransactionType = "remove"
	TypeUpdate  TransactionType = "update"
	TypeExpire  TransactionType = "expire"
	TypeConsume TransactionType = "consume"
)

// quantityEpsilon bounds the float comparison when checking the
// previous+change == new arithmetic at creation time.
const quantityEpsilon = 1e-9

type (
	TransactionType string

	// Transaction is an immutable record of one inventory quantity change.
	// Once recorded it is never updated or deleted, only appended to.
	Transaction struct {
		ID               string            `json:"id"`
		ProductID        string            `json:"productId"`
		ProductName      string            `json:"productName"`
		Category         string            `json:"category"`
		Location         string            `json:"location"`
		Type             TransactionType   `json:"transactionType"`
		QuantityChange   float64           `json:"quantityChange"`
		PreviousQuantity float64           `json:"previousQuantity"`
		NewQuantity      float64           `json:"newQuantity"`
		Cost             float64           `json:"cost,omitempty"`
		ExpiryDate       *time.Time        `json:"expiryDate,omitempty"`
		UserID           string            `json:"userId"`
		UserName         string            `json:"userName,omitempty"`
		GroupID          string            `json:"groupId,omitempty"`
		Timestamp        int64             `json:"timestamp"` // milliseconds since epoch
		Metadata         map[string]string `json:"metadata,omitempty"`
	}

	// TransactionInput carries caller-supplied fields for a new transaction.
	// ID, Timestamp, UserID and GroupID are assigned by the ledger when absent.
	TransactionInput struct {
		ID               string
		ProductID        string
		ProductName      string
		Category         string
		Location         string
		Type             TransactionType
		QuantityChange   float64
		PreviousQuantity float64
		NewQuantity      float64
		Cost             float64
		ExpiryDate       *time.Time
		UserID           string
		UserName         string
		GroupID          string
		Timestamp        int64
		Metadata         map[string]string
	}

	// ProductRef identifies the product a mutation applies to.
	ProductRef struct {
		ID       string
		Name     string
		Category string
		Location string
	}
)

var (
	ErrUnknownType        = errors.New("unknown transaction type")
	ErrQuantityMismatch   = errors.New("new quantity does not equal previous plus change")
	ErrQuantitySign       = errors.New("quantity change sign does not match transaction type")
	ErrNegativeCost       = errors.New("cost cannot be negative")
	ErrEmptyProductName   = errors.New("empty product name")
	ErrNoUserContext      = errors.New("no user context available")
	ErrCategoryNotAllowed = errors.New("category not in allow-list")
	ErrLocationNotAllowed = errors.New("location not in allow-list")
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeAdd, TypeRemove, TypeUpdate, TypeExpire, TypeConsume:
		return true
	}
	return false
}

// Outbound reports whether the type removes quantity from inventory.
func (t TransactionType) Outbound() bool {
	return t == TypeRemove || t == TypeConsume || t == TypeExpire
}

// Time returns the transaction timestamp as a time.Time.
func (t Transaction) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrUnknownType
	}
	if len(strings.TrimSpace(t.ProductName)) == 0 {
		return ErrEmptyProductName
	}
	if math.Abs(t.NewQuantity-(t.PreviousQuantity+t.QuantityChange)) > quantityEpsilon {
		return ErrQuantityMismatch
	}
	// Sign convention: positive for add, negative for remove/consume/expire,
	// either sign for update.
	switch {
	case t.Type == TypeAdd && t.QuantityChange < 0:
		return ErrQuantitySign
	case t.Type.Outbound() && t.QuantityChange > 0:
		return ErrQuantitySign
	}
	if t.Cost < 0 {
		return ErrNegativeCost
	}
	return nil
}
