// Package store defines the persistence boundary. Every mutating operation
// runs inside WithinTx so that cart, order, transaction and outbox writes
// commit or roll back together.
package store

import (
	"context"

	"github.com/google/uuid"

	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
)

// Store opens database transactions
type Store interface {
	// WithinTx runs fn in one database transaction. A non-nil error from fn
	// rolls everything back and is returned unchanged.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}

// Tx is the set of operations available inside a database transaction
type Tx interface {
	Catalog
	Carts
	Orders
	Transactions
	Outbox
}

// Catalog reads dishes and restaurants
type Catalog interface {
	Dish(ctx context.Context, id uuid.UUID) (models.Dish, error)
	// DishesByID returns the dishes that exist; missing ids are absent from the map
	DishesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error)
	RestaurantForOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, bool, error)
}

// Carts manages carts and their lines
type Carts interface {
	// EnsureCart returns the customer's cart, creating it if absent, and
	// holds a lock on it until the transaction ends.
	EnsureCart(ctx context.Context, customerID uuid.UUID) (models.Cart, error)
	CartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	CartLine(ctx context.Context, cartID, dishID uuid.UUID) (models.CartLine, error)
	// AddCartLine inserts line, or adds its quantity to the existing line for
	// the same dish keeping that line's price. Returns the resulting line.
	AddCartLine(ctx context.Context, line models.CartLine) (models.CartLine, error)
	UpdateCartLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteCartLine(ctx context.Context, lineID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) (int64, error)
}

// OrderFilter selects orders for list views. Nil fields do not filter.
type OrderFilter struct {
	CustomerID   *uuid.UUID
	RestaurantID *uuid.UUID
	Status       *models.OrderStatus
	Page         models.Page
}

// Orders manages orders, their items and status log
type Orders interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	OrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	SetOrderTotal(ctx context.Context, orderID uuid.UUID, total pricing.Money) error
	// Order loads an order without items. forUpdate locks the row.
	Order(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Order, error)
	SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	AppendStatusLog(ctx context.Context, entry models.OrderStatusHistory) error
	StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	// ListOrders returns matching orders newest first, items included
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
}

// Transactions manages payment intents
type Transactions interface {
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	TransactionByOrder(ctx context.Context, orderID uuid.UUID) (models.Transaction, error)
	TransactionByID(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Transaction, error)
	TransactionByReference(ctx context.Context, reference string, forUpdate bool) (models.Transaction, error)
	SetTransactionStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error
}

// Outbox stores events for asynchronous publication
type Outbox interface {
	EnqueueEvent(ctx context.Context, event models.Event) error
	// PendingEvents returns unsent events oldest first, locked so that
	// concurrent relays skip them.
	PendingEvents(ctx context.Context, limit int) ([]models.Event, error)
	MarkEventSent(ctx context.Context, id int64) error
}
