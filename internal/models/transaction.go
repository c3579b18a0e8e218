package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/pricing"
)

// TransactionStatus represents the lifecycle of a payment intent
type TransactionStatus string

const (
	TransactionInitiated TransactionStatus = "initiated"
	TransactionSuccess   TransactionStatus = "success"
	TransactionFailed    TransactionStatus = "failed"
)

func (s TransactionStatus) Terminal() bool {
	return s == TransactionSuccess || s == TransactionFailed
}

// ParseTransactionStatus accepts only terminal targets, which are the only
// statuses a caller may set.
func ParseTransactionStatus(field, raw string) (TransactionStatus, error) {
	s := TransactionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Terminal() {
		return "", Validation(field, "must be one of: success, failed")
	}
	return s, nil
}

// Transaction is the single payment intent for an order
type Transaction struct {
	ID         uuid.UUID         `json:"id"`
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Amount     pricing.Money     `json:"amount"`
	Reference  string            `json:"reference"`
	Status     TransactionStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
