// Package postgres implements store.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"food-marketplace/internal/database"
	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/store"
)

// Store is the PostgreSQL-backed store
type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.db.InTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Store) Close() { s.db.Close() }

type pgTx struct {
	tx pgx.Tx
}

var _ store.Tx = (*pgTx)(nil)

// translate maps constraint violations to domain errors. Anything else is
// wrapped with op and stays internal.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return models.Conflict("resource already exists")
		case "23503":
			return models.Validation("", "referenced record does not exist")
		case "23514":
			return models.InvalidQuantity("quantity")
		case "22003":
			return models.Validation("", "numeric value out of range")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(op, what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFound(what)
	}
	return translate(op, err)
}

// Catalog

func (t *pgTx) Dish(ctx context.Context, id uuid.UUID) (models.Dish, error) {
	var d models.Dish
	err := t.tx.QueryRow(ctx, database.GetDishSQL, id).
		Scan(&d.ID, &d.RestaurantID, &d.Name, &d.Price, &d.IsAvailable, &d.CreatedAt)
	if err != nil {
		return models.Dish{}, notFound("get dish", "dish", err)
	}
	return d, nil
}

func (t *pgTx) DishesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error) {
	rows, err := t.tx.Query(ctx, database.GetDishesByIDSQL, uuidStrings(ids))
	if err != nil {
		return nil, translate("get dishes", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]models.Dish, len(ids))
	for rows.Next() {
		var d models.Dish
		if err := rows.Scan(&d.ID, &d.RestaurantID, &d.Name, &d.Price, &d.IsAvailable, &d.CreatedAt); err != nil {
			return nil, translate("scan dish", err)
		}
		out[d.ID] = d
	}
	return out, translate("iterate dishes", rows.Err())
}

func (t *pgTx) RestaurantForOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, database.GetRestaurantForOwnerSQL, ownerID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, translate("get restaurant for owner", err)
	}
	return id, true, nil
}

// Carts

func (t *pgTx) EnsureCart(ctx context.Context, customerID uuid.UUID) (models.Cart, error) {
	var c models.Cart
	err := t.tx.QueryRow(ctx, database.EnsureCartSQL, uuid.New(), customerID).
		Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Cart{}, translate("ensure cart", err)
	}
	return c, nil
}

func (t *pgTx) CartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	rows, err := t.tx.Query(ctx, database.GetCartLinesSQL, cartID)
	if err != nil {
		return nil, translate("get cart lines", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.DishID, &l.Quantity, &l.Price, &l.CreatedAt); err != nil {
			return nil, translate("scan cart line", err)
		}
		lines = append(lines, l)
	}
	return lines, translate("iterate cart lines", rows.Err())
}

func (t *pgTx) CartLine(ctx context.Context, cartID, dishID uuid.UUID) (models.CartLine, error) {
	var l models.CartLine
	err := t.tx.QueryRow(ctx, database.GetCartLineSQL, cartID, dishID).
		Scan(&l.ID, &l.CartID, &l.DishID, &l.Quantity, &l.Price, &l.CreatedAt)
	if err != nil {
		return models.CartLine{}, notFound("get cart line", "cart item", err)
	}
	return l, nil
}

func (t *pgTx) AddCartLine(ctx context.Context, line models.CartLine) (models.CartLine, error) {
	var l models.CartLine
	err := t.tx.QueryRow(ctx, database.UpsertCartLineSQL, line.ID, line.CartID, line.DishID, line.Quantity, line.Price).
		Scan(&l.ID, &l.CartID, &l.DishID, &l.Quantity, &l.Price, &l.CreatedAt)
	if err != nil {
		return models.CartLine{}, translate("upsert cart line", err)
	}
	if _, err := t.tx.Exec(ctx, database.TouchCartSQL, line.CartID); err != nil {
		return models.CartLine{}, translate("touch cart", err)
	}
	return l, nil
}

func (t *pgTx) UpdateCartLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	tag, err := t.tx.Exec(ctx, database.UpdateCartLineQuantitySQL, quantity, lineID)
	if err != nil {
		return translate("update cart line", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("cart item")
	}
	return nil
}

func (t *pgTx) DeleteCartLine(ctx context.Context, lineID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, database.DeleteCartLineSQL, lineID)
	if err != nil {
		return translate("delete cart line", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("cart item")
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, cartID uuid.UUID) (int64, error) {
	tag, err := t.tx.Exec(ctx, database.ClearCartSQL, cartID)
	if err != nil {
		return 0, translate("clear cart", err)
	}
	return tag.RowsAffected(), nil
}

// Orders

func (t *pgTx) InsertOrder(ctx context.Context, o *models.Order) error {
	err := t.tx.QueryRow(ctx, database.InsertOrderSQL, o.ID, o.CustomerID, o.RestaurantID, string(o.Status), o.TotalAmount).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	return translate("insert order", err)
}

func (t *pgTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	_, err := t.tx.Exec(ctx, database.InsertOrderItemSQL, item.ID, item.OrderID, item.DishID, item.Quantity, item.Price)
	return translate("insert order item", err)
}

func (t *pgTx) OrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := t.tx.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, translate("get order items", err)
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func scanOrderItems(rows pgx.Rows) ([]models.OrderItem, error) {
	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Quantity, &it.Price); err != nil {
			return nil, translate("scan order item", err)
		}
		items = append(items, it)
	}
	return items, translate("iterate order items", rows.Err())
}

func (t *pgTx) SetOrderTotal(ctx context.Context, orderID uuid.UUID, total pricing.Money) error {
	_, err := t.tx.Exec(ctx, database.UpdateOrderTotalSQL, total, orderID)
	return translate("update order total", err)
}

func (t *pgTx) Order(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Order, error) {
	query := database.GetOrderSQL
	if forUpdate {
		query = database.GetOrderForUpdateSQL
	}
	var o models.Order
	var status string
	err := t.tx.QueryRow(ctx, query, id).
		Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, notFound("get order", "order", err)
	}
	o.Status = models.OrderStatus(status)
	return o, nil
}

func (t *pgTx) SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	_, err := t.tx.Exec(ctx, database.UpdateOrderStatusSQL, string(status), id)
	return translate("update order status", err)
}

func (t *pgTx) AppendStatusLog(ctx context.Context, e models.OrderStatusHistory) error {
	_, err := t.tx.Exec(ctx, database.InsertOrderStatusLogSQL, e.OrderID, string(e.Status), e.ChangedBy, e.Notes)
	return translate("insert status log", err)
}

func (t *pgTx) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	rows, err := t.tx.Query(ctx, database.GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, translate("get status history", err)
	}
	defer rows.Close()

	var out []models.OrderStatusHistory
	for rows.Next() {
		var h models.OrderStatusHistory
		var status string
		if err := rows.Scan(&h.OrderID, &status, &h.ChangedBy, &h.ChangedAt, &h.Notes); err != nil {
			return nil, translate("scan status history", err)
		}
		h.Status = models.OrderStatus(status)
		out = append(out, h)
	}
	return out, translate("iterate status history", rows.Err())
}

func (t *pgTx) ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	page := f.Page.Normalize()
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	rows, err := t.tx.Query(ctx, database.ListOrdersSQL, f.CustomerID, f.RestaurantID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list orders", err)
	}

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var st string
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &st, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, translate("scan order", err)
		}
		o.Status = models.OrderStatus(st)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translate("iterate orders", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	itemRows, err := t.tx.Query(ctx, database.GetOrderItemsForOrdersSQL, uuidStrings(ids))
	if err != nil {
		return nil, translate("get order items", err)
	}
	defer itemRows.Close()
	items, err := scanOrderItems(itemRows)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

// Transactions

func (t *pgTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	err := t.tx.QueryRow(ctx, database.InsertTransactionSQL,
		txn.ID, txn.OrderID, txn.CustomerID, txn.Amount, txn.Reference, string(txn.Status)).
		Scan(&txn.CreatedAt, &txn.UpdatedAt)
	return translate("insert transaction", err)
}

func (t *pgTx) scanTransaction(ctx context.Context, op, query string, arg interface{}) (models.Transaction, error) {
	var txn models.Transaction
	var status string
	err := t.tx.QueryRow(ctx, query, arg).
		Scan(&txn.ID, &txn.OrderID, &txn.CustomerID, &txn.Amount, &txn.Reference, &status, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return models.Transaction{}, notFound(op, "transaction", err)
	}
	txn.Status = models.TransactionStatus(status)
	return txn, nil
}

func (t *pgTx) TransactionByOrder(ctx context.Context, orderID uuid.UUID) (models.Transaction, error) {
	return t.scanTransaction(ctx, "get transaction by order", database.GetTransactionByOrderSQL, orderID)
}

func (t *pgTx) TransactionByID(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Transaction, error) {
	query := database.GetTransactionByIDSQL
	if forUpdate {
		query = database.GetTransactionByIDForUpdateSQL
	}
	return t.scanTransaction(ctx, "get transaction", query, id)
}

func (t *pgTx) TransactionByReference(ctx context.Context, reference string, forUpdate bool) (models.Transaction, error) {
	query := database.GetTransactionByRefSQL
	if forUpdate {
		query = database.GetTransactionByRefForUpdateSQL
	}
	return t.scanTransaction(ctx, "get transaction by reference", query, reference)
}

func (t *pgTx) SetTransactionStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error {
	_, err := t.tx.Exec(ctx, database.UpdateTransactionStatusSQL, string(status), id)
	return translate("update transaction status", err)
}

// Outbox

func (t *pgTx) EnqueueEvent(ctx context.Context, e models.Event) error {
	_, err := t.tx.Exec(ctx, database.InsertOutboxEventSQL, e.EventID, e.Type, e.Key, e.Payload, e.CreatedAt)
	return translate("insert outbox event", err)
}

func (t *pgTx) PendingEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := t.tx.Query(ctx, database.GetPendingOutboxEventsSQL, limit)
	if err != nil {
		return nil, translate("fetch outbox", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.EventID, &e.Type, &e.Key, &e.Payload, &e.CreatedAt); err != nil {
			return nil, translate("scan outbox event", err)
		}
		out = append(out, e)
	}
	return out, translate("iterate outbox", rows.Err())
}

func (t *pgTx) MarkEventSent(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, database.MarkOutboxEventSentSQL, id)
	return translate("mark outbox event sent", err)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
