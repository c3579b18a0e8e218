package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/pricing"
)

// Event types double as routing keys on the events exchange
const (
	EventOrderCreated             = "order.created"
	EventOrderStatusChanged       = "order.status_changed"
	EventTransactionOpened        = "transaction.opened"
	EventTransactionStatusChanged = "transaction.status_changed"
)

// Event is an outbox row: a domain event written in the same database
// transaction as the change it describes, published later by the relay.
type Event struct {
	ID        int64           `json:"-"`
	EventID   uuid.UUID       `json:"event_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// OrderCreatedMessage is published when an order is placed
type OrderCreatedMessage struct {
	OrderID      uuid.UUID     `json:"order_id"`
	CustomerID   uuid.UUID     `json:"customer_id"`
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	TotalAmount  pricing.Money `json:"total_amount"`
	ItemCount    int           `json:"item_count"`
	Source       string        `json:"source"`
	Timestamp    time.Time     `json:"timestamp"`
}

// StatusUpdateMessage represents an order status change
type StatusUpdateMessage struct {
	OrderID      uuid.UUID `json:"order_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	ChangedBy    string    `json:"changed_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// TransactionMessage is published when a transaction opens or settles
type TransactionMessage struct {
	TransactionID uuid.UUID     `json:"transaction_id"`
	OrderID       uuid.UUID     `json:"order_id"`
	Reference     string        `json:"reference"`
	Amount        pricing.Money `json:"amount"`
	Status        string        `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
}

// PaymentConfirmationMessage is what payment collaborators send back
type PaymentConfirmationMessage struct {
	Reference  string    `json:"reference"`
	Status     string    `json:"status"`
	GatewayRef string    `json:"gateway_ref,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent wraps a payload into an outbox row
func NewEvent(eventType, key string, payload interface{}) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		EventID:   uuid.New(),
		Type:      eventType,
		Key:       key,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CreateOrderCreatedEvent builds the order.created event
func CreateOrderCreatedEvent(order *Order, source string) (Event, error) {
	return NewEvent(EventOrderCreated, order.ID.String(), OrderCreatedMessage{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		TotalAmount:  order.TotalAmount,
		ItemCount:    len(order.Items),
		Source:       source,
		Timestamp:    time.Now().UTC(),
	})
}

// CreateStatusUpdateEvent builds the order.status_changed event
func CreateStatusUpdateEvent(order *Order, oldStatus OrderStatus, changedBy string) (Event, error) {
	return NewEvent(EventOrderStatusChanged, order.ID.String(), StatusUpdateMessage{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		OldStatus:    string(oldStatus),
		NewStatus:    string(order.Status),
		ChangedBy:    changedBy,
		Timestamp:    time.Now().UTC(),
	})
}

// CreateTransactionEvent builds a transaction.* event
func CreateTransactionEvent(eventType string, txn *Transaction) (Event, error) {
	return NewEvent(eventType, txn.OrderID.String(), TransactionMessage{
		TransactionID: txn.ID,
		OrderID:       txn.OrderID,
		Reference:     txn.Reference,
		Amount:        txn.Amount,
		Status:        string(txn.Status),
		Timestamp:     time.Now().UTC(),
	})
}
