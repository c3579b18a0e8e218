// Package lite implements store.Store on SQLite through gorm. It backs
// local single-process runs and the service tests.
package lite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/store"
)

// Store is the SQLite-backed store
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// one connection serialises writers, which stands in for row locks
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
	}

	if err := db.AutoMigrate(allRecords...); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &liteTx{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// PutRestaurant inserts or replaces a catalog restaurant
func (s *Store) PutRestaurant(ctx context.Context, r models.Restaurant) error {
	rec := restaurantRecord{ID: r.ID, OwnerID: r.OwnerID, Name: r.Name}
	return s.db.WithContext(ctx).Save(&rec).Error
}

// PutDish inserts or replaces a catalog dish
func (s *Store) PutDish(ctx context.Context, d models.Dish) error {
	rec := dishRecord{
		ID:           d.ID,
		RestaurantID: d.RestaurantID,
		Name:         d.Name,
		Price:        d.Price,
		IsAvailable:  d.IsAvailable,
		CreatedAt:    d.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

type liteTx struct {
	db *gorm.DB
}

var _ store.Tx = (*liteTx)(nil)

func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.Conflict("resource already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return models.Validation("", "referenced record does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(op, what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFound(what)
	}
	return translate(op, err)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Catalog

func (t *liteTx) Dish(ctx context.Context, id uuid.UUID) (models.Dish, error) {
	var rec dishRecord
	if err := t.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return models.Dish{}, notFound("get dish", "dish", err)
	}
	return rec.model(), nil
}

func (t *liteTx) DishesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error) {
	var recs []dishRecord
	if err := t.db.Where("id IN ?", uuidStrings(ids)).Find(&recs).Error; err != nil {
		return nil, translate("get dishes", err)
	}
	out := make(map[uuid.UUID]models.Dish, len(recs))
	for _, r := range recs {
		out[r.ID] = r.model()
	}
	return out, nil
}

func (t *liteTx) RestaurantForOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, bool, error) {
	var rec restaurantRecord
	err := t.db.Where("owner_id = ?", ownerID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, translate("get restaurant for owner", err)
	}
	return rec.ID, true, nil
}

// Carts

func (t *liteTx) EnsureCart(ctx context.Context, customerID uuid.UUID) (models.Cart, error) {
	rec := cartRecord{ID: uuid.New(), CustomerID: customerID}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoNothing: true,
	}).Create(&rec).Error
	if err != nil {
		return models.Cart{}, translate("ensure cart", err)
	}

	var existing cartRecord
	if err := t.db.Where("customer_id = ?", customerID).First(&existing).Error; err != nil {
		return models.Cart{}, translate("load cart", err)
	}
	return models.Cart{
		ID:         existing.ID,
		CustomerID: existing.CustomerID,
		CreatedAt:  existing.CreatedAt,
		UpdatedAt:  existing.UpdatedAt,
	}, nil
}

func (t *liteTx) CartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var recs []cartLineRecord
	if err := t.db.Where("cart_id = ?", cartID).Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, translate("get cart lines", err)
	}
	lines := make([]models.CartLine, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, r.model())
	}
	return lines, nil
}

func (t *liteTx) CartLine(ctx context.Context, cartID, dishID uuid.UUID) (models.CartLine, error) {
	var rec cartLineRecord
	if err := t.db.Where("cart_id = ? AND dish_id = ?", cartID, dishID).First(&rec).Error; err != nil {
		return models.CartLine{}, notFound("get cart line", "cart item", err)
	}
	return rec.model(), nil
}

func (t *liteTx) AddCartLine(ctx context.Context, line models.CartLine) (models.CartLine, error) {
	rec := cartLineRecord{
		ID:       line.ID,
		CartID:   line.CartID,
		DishID:   line.DishID,
		Quantity: line.Quantity,
		Price:    line.Price,
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "dish_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + excluded.quantity"),
		}),
	}).Create(&rec).Error
	if err != nil {
		return models.CartLine{}, translate("upsert cart line", err)
	}

	err = t.db.Model(&cartRecord{}).Where("id = ?", line.CartID).Update("updated_at", time.Now()).Error
	if err != nil {
		return models.CartLine{}, translate("touch cart", err)
	}
	return t.CartLine(ctx, line.CartID, line.DishID)
}

func (t *liteTx) UpdateCartLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	res := t.db.Model(&cartLineRecord{}).Where("id = ?", lineID).Update("quantity", quantity)
	if res.Error != nil {
		return translate("update cart line", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("cart item")
	}
	return nil
}

func (t *liteTx) DeleteCartLine(ctx context.Context, lineID uuid.UUID) error {
	res := t.db.Where("id = ?", lineID).Delete(&cartLineRecord{})
	if res.Error != nil {
		return translate("delete cart line", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NotFound("cart item")
	}
	return nil
}

func (t *liteTx) ClearCart(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := t.db.Where("cart_id = ?", cartID).Delete(&cartLineRecord{})
	if res.Error != nil {
		return 0, translate("clear cart", res.Error)
	}
	return res.RowsAffected, nil
}

// Orders

func (t *liteTx) InsertOrder(ctx context.Context, o *models.Order) error {
	rec := orderRecord{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount,
	}
	if err := t.db.Create(&rec).Error; err != nil {
		return translate("insert order", err)
	}
	o.CreatedAt, o.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	return nil
}

func (t *liteTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	rec := orderItemRecord{
		ID:       item.ID,
		OrderID:  item.OrderID,
		DishID:   item.DishID,
		Quantity: item.Quantity,
		Price:    item.Price,
	}
	return translate("insert order item", t.db.Create(&rec).Error)
}

func (t *liteTx) OrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var recs []orderItemRecord
	if err := t.db.Where("order_id = ?", orderID).Order("id").Find(&recs).Error; err != nil {
		return nil, translate("get order items", err)
	}
	items := make([]models.OrderItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.model())
	}
	return items, nil
}

func (t *liteTx) SetOrderTotal(ctx context.Context, orderID uuid.UUID, total pricing.Money) error {
	err := t.db.Model(&orderRecord{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"total_amount": total,
		"updated_at":   time.Now(),
	}).Error
	return translate("update order total", err)
}

// Order ignores forUpdate: the single connection already serialises
// transactions.
func (t *liteTx) Order(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Order, error) {
	var rec orderRecord
	if err := t.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return models.Order{}, notFound("get order", "order", err)
	}
	return rec.model(), nil
}

func (t *liteTx) SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	err := t.db.Model(&orderRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}).Error
	return translate("update order status", err)
}

func (t *liteTx) AppendStatusLog(ctx context.Context, e models.OrderStatusHistory) error {
	changedAt := e.ChangedAt
	if changedAt.IsZero() {
		changedAt = time.Now()
	}
	rec := statusLogRecord{
		OrderID:   e.OrderID,
		Status:    string(e.Status),
		ChangedBy: e.ChangedBy,
		Notes:     e.Notes,
		ChangedAt: changedAt,
	}
	return translate("insert status log", t.db.Create(&rec).Error)
}

func (t *liteTx) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var recs []statusLogRecord
	if err := t.db.Where("order_id = ?", orderID).Order("changed_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, translate("get status history", err)
	}
	out := make([]models.OrderStatusHistory, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.OrderStatusHistory{
			OrderID:   r.OrderID,
			Status:    models.OrderStatus(r.Status),
			ChangedBy: r.ChangedBy,
			ChangedAt: r.ChangedAt,
			Notes:     r.Notes,
		})
	}
	return out, nil
}

func (t *liteTx) ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	page := f.Page.Normalize()
	q := t.db.Model(&orderRecord{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.RestaurantID != nil {
		q = q.Where("restaurant_id = ?", *f.RestaurantID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	var recs []orderRecord
	if err := q.Order("created_at DESC, id DESC").Limit(page.Limit).Offset(page.Offset).Find(&recs).Error; err != nil {
		return nil, translate("list orders", err)
	}
	if len(recs) == 0 {
		return []models.Order{}, nil
	}

	ids := make([]uuid.UUID, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	var itemRecs []orderItemRecord
	if err := t.db.Where("order_id IN ?", uuidStrings(ids)).Order("order_id, id").Find(&itemRecs).Error; err != nil {
		return nil, translate("get order items", err)
	}
	byOrder := make(map[uuid.UUID][]models.OrderItem, len(recs))
	for _, it := range itemRecs {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it.model())
	}

	orders := make([]models.Order, 0, len(recs))
	for _, r := range recs {
		o := r.model()
		o.Items = byOrder[o.ID]
		orders = append(orders, o)
	}
	return orders, nil
}

// Transactions

func (t *liteTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	rec := transactionRecord{
		ID:         txn.ID,
		OrderID:    txn.OrderID,
		CustomerID: txn.CustomerID,
		Amount:     txn.Amount,
		Reference:  txn.Reference,
		Status:     string(txn.Status),
	}
	if err := t.db.Create(&rec).Error; err != nil {
		return translate("insert transaction", err)
	}
	txn.CreatedAt, txn.UpdatedAt = rec.CreatedAt, rec.UpdatedAt
	return nil
}

func (t *liteTx) findTransaction(op, where string, arg interface{}) (models.Transaction, error) {
	var rec transactionRecord
	if err := t.db.Where(where, arg).First(&rec).Error; err != nil {
		return models.Transaction{}, notFound(op, "transaction", err)
	}
	return rec.model(), nil
}

func (t *liteTx) TransactionByOrder(ctx context.Context, orderID uuid.UUID) (models.Transaction, error) {
	return t.findTransaction("get transaction by order", "order_id = ?", orderID)
}

func (t *liteTx) TransactionByID(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Transaction, error) {
	return t.findTransaction("get transaction", "id = ?", id)
}

func (t *liteTx) TransactionByReference(ctx context.Context, reference string, forUpdate bool) (models.Transaction, error) {
	return t.findTransaction("get transaction by reference", "reference = ?", reference)
}

func (t *liteTx) SetTransactionStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error {
	err := t.db.Model(&transactionRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}).Error
	return translate("update transaction status", err)
}

// Outbox

func (t *liteTx) EnqueueEvent(ctx context.Context, e models.Event) error {
	rec := outboxRecord{
		EventID:   e.EventID,
		Topic:     e.Type,
		Key:       e.Key,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
	}
	return translate("insert outbox event", t.db.Create(&rec).Error)
}

func (t *liteTx) PendingEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var recs []outboxRecord
	if err := t.db.Where("sent_at IS NULL").Order("id").Limit(limit).Find(&recs).Error; err != nil {
		return nil, translate("fetch outbox", err)
	}
	out := make([]models.Event, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.model())
	}
	return out, nil
}

func (t *liteTx) MarkEventSent(ctx context.Context, id int64) error {
	err := t.db.Model(&outboxRecord{}).Where("id = ?", id).Update("sent_at", time.Now()).Error
	return translate("mark outbox event sent", err)
}
