package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/pricing"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusPreparing OrderStatus = "preparing"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusDelivered},
}

var orderStatuses = []OrderStatus{StatusPending, StatusPaid, StatusPreparing, StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseOrderStatus validates a status coming from a caller
func ParseOrderStatus(field, raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		names := make([]string, len(orderStatuses))
		for i, st := range orderStatuses {
			names[i] = string(st)
		}
		return "", Validation(field, fmt.Sprintf("must be one of: %s", strings.Join(names, ", ")))
	}
	return s, nil
}

// Order is a placed order against one restaurant
type Order struct {
	ID           uuid.UUID     `json:"id"`
	CustomerID   uuid.UUID     `json:"customer_id"`
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	Status       OrderStatus   `json:"status"`
	TotalAmount  pricing.Money `json:"total_amount"`
	Items        []OrderItem   `json:"items"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// OrderItem is one priced line of an order
type OrderItem struct {
	ID       uuid.UUID     `json:"id"`
	OrderID  uuid.UUID     `json:"order_id"`
	DishID   uuid.UUID     `json:"dish_id"`
	Quantity int           `json:"quantity"`
	Price    pricing.Money `json:"price"`
}

func (i OrderItem) UnitPrice() pricing.Money { return i.Price }
func (i OrderItem) Count() int               { return i.Quantity }

// Subtotal is derived and never stored
func (i OrderItem) Subtotal() pricing.Money {
	return pricing.Subtotal(i.Price, i.Quantity)
}

// ItemRequest is a caller-supplied order line. Quantity nil means 1.
type ItemRequest struct {
	DishID   uuid.UUID `json:"dish_id"`
	Quantity *int      `json:"quantity,omitempty"`
}

func (r ItemRequest) QuantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// CreateOrderRequest is the body of an explicit order
type CreateOrderRequest struct {
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	Items        []ItemRequest `json:"items"`
}

// Validate checks the request shape before any catalog lookup
func (r *CreateOrderRequest) Validate() error {
	if r.RestaurantID == uuid.Nil {
		return Validation("restaurant_id", "is required")
	}
	if len(r.Items) == 0 {
		return Validation("items", "must contain at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(r.Items))
	for i, item := range r.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if item.DishID == uuid.Nil {
			return Validation(prefix+".dish_id", "is required")
		}
		if seen[item.DishID] {
			return Validation(prefix+".dish_id", "dish is listed more than once")
		}
		seen[item.DishID] = true
		if err := ValidateQuantity(prefix+".quantity", item.QuantityOrDefault()); err != nil {
			return err
		}
	}
	return nil
}

// OrderStatusHistory represents an entry in the order status log
type OrderStatusHistory struct {
	OrderID   uuid.UUID   `json:"order_id"`
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"timestamp"`
	Notes     *string     `json:"notes,omitempty"`
}

// Page bounds a list query
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Normalize applies the default limit and clamps out-of-range values
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
