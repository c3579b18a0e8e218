package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"food-marketplace/internal/metrics"
	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/services/cart"
	"food-marketplace/internal/services/ledger"
	"food-marketplace/internal/services/lifecycle"
	"food-marketplace/internal/store"
)

// Placement is an order together with the transaction opened for it
type Placement struct {
	Order       models.Order       `json:"order"`
	Transaction models.Transaction `json:"transaction"`
}

// CreateFromExplicitItems places an order for dishes of one restaurant
func (s *Service) CreateFromExplicitItems(ctx context.Context, customerID uuid.UUID, req models.CreateOrderRequest) (models.Order, error) {
	if err := req.Validate(); err != nil {
		return models.Order{}, err
	}

	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.DishID
	}

	var order models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dishes, err := tx.DishesByID(ctx, ids)
		if err != nil {
			return err
		}
		lines, err := validateItems(req.RestaurantID, req.Items, dishes)
		if err != nil {
			return err
		}
		order, err = place(ctx, tx, customerID, req.RestaurantID, lines, SourceItems)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	s.placed(order, SourceItems)
	return order, nil
}

// CreateFromSingleDish places an order for one dish, the restaurant being
// the dish's own
func (s *Service) CreateFromSingleDish(ctx context.Context, customerID, dishID uuid.UUID, quantity int) (models.Order, error) {
	if err := models.ValidateQuantity("quantity", quantity); err != nil {
		return models.Order{}, err
	}

	var order models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = fromSingleDish(ctx, tx, customerID, dishID, quantity)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	s.placed(order, SourceSingle)
	return order, nil
}

// BuyNow places a single-dish order and opens its transaction
func (s *Service) BuyNow(ctx context.Context, customerID, dishID uuid.UUID, quantity int) (Placement, error) {
	if err := models.ValidateQuantity("quantity", quantity); err != nil {
		return Placement{}, err
	}

	var p Placement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p.Order, err = fromSingleDish(ctx, tx, customerID, dishID, quantity); err != nil {
			return err
		}
		p.Transaction, err = ledger.OpenTx(ctx, tx, &p.Order, customerID)
		return err
	})
	if err != nil {
		return Placement{}, err
	}

	s.placed(p.Order, SourceSingle)
	metrics.TransactionsTotal.WithLabelValues(string(p.Transaction.Status)).Inc()
	return p, nil
}

// CreateFromCart drains the customer's cart into an order
func (s *Service) CreateFromCart(ctx context.Context, customerID uuid.UUID) (models.Order, error) {
	var order models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		order, err = fromCart(ctx, tx, customerID)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	s.placed(order, SourceCart)
	return order, nil
}

// Checkout drains the cart into an order and opens its transaction
func (s *Service) Checkout(ctx context.Context, customerID uuid.UUID) (Placement, error) {
	var p Placement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if p.Order, err = fromCart(ctx, tx, customerID); err != nil {
			return err
		}
		p.Transaction, err = ledger.OpenTx(ctx, tx, &p.Order, customerID)
		return err
	})
	if err != nil {
		return Placement{}, err
	}

	s.placed(p.Order, SourceCart)
	metrics.TransactionsTotal.WithLabelValues(string(p.Transaction.Status)).Inc()
	return p, nil
}

// RecalcTotal stores the sum of the order's item subtotals
func RecalcTotal(ctx context.Context, tx store.Tx, order *models.Order) error {
	items, err := tx.OrderItems(ctx, order.ID)
	if err != nil {
		return err
	}
	total := pricing.Total(items)
	if total.Exceeds(pricing.MaxAmount) {
		return models.Validation("total_amount", "order total is too large")
	}
	if err := tx.SetOrderTotal(ctx, order.ID, total); err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	order.Items = items
	order.TotalAmount = total
	return nil
}

func (s *Service) placed(order models.Order, source string) {
	metrics.OrdersCreated.WithLabelValues(source).Inc()
	metrics.OrderAmount.Observe(order.TotalAmount.Decimal().InexactFloat64())

	s.logger.Info("order_created", "Order placed", "", map[string]interface{}{
		"order_id":      order.ID.String(),
		"customer_id":   order.CustomerID.String(),
		"restaurant_id": order.RestaurantID.String(),
		"total_amount":  order.TotalAmount.String(),
		"items":         len(order.Items),
		"source":        source,
	})
}

func fromSingleDish(ctx context.Context, tx store.Tx, customerID, dishID uuid.UUID, quantity int) (models.Order, error) {
	dish, err := tx.Dish(ctx, dishID)
	if err != nil {
		return models.Order{}, err
	}
	if !dish.IsAvailable {
		return models.Order{}, models.Unavailable("dish_id")
	}

	lines := []draftLine{{
		DishID:   dish.ID,
		Quantity: quantity,
		Price:    pricing.Snapshot(dish.Price),
	}}
	return place(ctx, tx, customerID, dish.RestaurantID, lines, SourceSingle)
}

// fromCart locks the cart, turns its lines into order items at their
// snapshot prices and empties it
func fromCart(ctx context.Context, tx store.Tx, customerID uuid.UUID) (models.Order, error) {
	c, err := tx.EnsureCart(ctx, customerID)
	if err != nil {
		return models.Order{}, err
	}
	cartLines, err := tx.CartLines(ctx, c.ID)
	if err != nil {
		return models.Order{}, err
	}
	if len(cartLines) == 0 {
		return models.Order{}, models.EmptyCart()
	}

	ids := make([]uuid.UUID, len(cartLines))
	for i, line := range cartLines {
		ids[i] = line.DishID
	}
	dishes, err := tx.DishesByID(ctx, ids)
	if err != nil {
		return models.Order{}, err
	}
	restaurantID, err := singleRestaurant(cartLines, dishes)
	if err != nil {
		return models.Order{}, err
	}

	lines := make([]draftLine, len(cartLines))
	for i, line := range cartLines {
		lines[i] = draftLine{DishID: line.DishID, Quantity: line.Quantity, Price: line.Price}
	}

	order, err := place(ctx, tx, customerID, restaurantID, lines, SourceCart)
	if err != nil {
		return models.Order{}, err
	}
	if err := cart.Clear(ctx, tx, c); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// place inserts a pending order with its items, totals it, logs the
// initial status and queues order.created. Ids are time-ordered so items
// read back in insertion order.
func place(ctx context.Context, tx store.Tx, customerID, restaurantID uuid.UUID, lines []draftLine, source string) (models.Order, error) {
	order := models.Order{
		ID:           uuid.Must(uuid.NewV7()),
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Status:       models.StatusPending,
	}
	if err := tx.InsertOrder(ctx, &order); err != nil {
		return models.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range lines {
		item := models.OrderItem{
			ID:       uuid.Must(uuid.NewV7()),
			OrderID:  order.ID,
			DishID:   line.DishID,
			Quantity: line.Quantity,
			Price:    line.Price,
		}
		if err := tx.InsertOrderItem(ctx, &item); err != nil {
			return models.Order{}, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := RecalcTotal(ctx, tx, &order); err != nil {
		return models.Order{}, err
	}

	customer := models.Principal{ID: customerID, Role: models.RoleCustomer}
	if err := lifecycle.Record(ctx, tx, &order, customer.Actor(), "order placed from "+source); err != nil {
		return models.Order{}, fmt.Errorf("failed to insert status log: %w", err)
	}

	event, err := models.CreateOrderCreatedEvent(&order, source)
	if err != nil {
		return models.Order{}, err
	}
	if err := tx.EnqueueEvent(ctx, event); err != nil {
		return models.Order{}, fmt.Errorf("failed to enqueue order event: %w", err)
	}
	return order, nil
}
