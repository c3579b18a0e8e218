package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/metrics"
	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/store"
)

// Service manages customer carts
type Service struct {
	store  store.Store
	logger *logger.Logger
}

func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		logger: log,
	}
}

// GetOrCreateCart returns the customer's cart, creating an empty one on
// first access
func (s *Service) GetOrCreateCart(ctx context.Context, customerID uuid.UUID) (models.CartView, error) {
	var view models.CartView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.EnsureCart(ctx, customerID)
		if err != nil {
			return err
		}
		view, err = viewOf(ctx, tx, cart)
		return err
	})
	return view, err
}

// AddItem adds quantity of a dish. A new line snapshots the dish's current
// price; an existing line keeps its price and grows.
func (s *Service) AddItem(ctx context.Context, customerID, dishID uuid.UUID, quantity int) (models.CartView, error) {
	if err := models.ValidateQuantity("quantity", quantity); err != nil {
		return models.CartView{}, err
	}

	var view models.CartView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		dish, err := tx.Dish(ctx, dishID)
		if err != nil {
			return err
		}
		cart, err := tx.EnsureCart(ctx, customerID)
		if err != nil {
			return err
		}
		if err := checkMerged(ctx, tx, cart.ID, dish.ID, quantity); err != nil {
			return err
		}
		_, err = tx.AddCartLine(ctx, models.CartLine{
			ID:       uuid.New(),
			CartID:   cart.ID,
			DishID:   dish.ID,
			Quantity: quantity,
			Price:    pricing.Snapshot(dish.Price),
		})
		if err != nil {
			return fmt.Errorf("failed to add cart line: %w", err)
		}
		view, err = viewOf(ctx, tx, cart)
		return err
	})
	if err != nil {
		return models.CartView{}, err
	}

	metrics.CartMutations.WithLabelValues("add").Inc()
	return view, nil
}

// DecreaseItem lowers a line's quantity, deleting the line when it would
// reach zero or below
func (s *Service) DecreaseItem(ctx context.Context, customerID, dishID uuid.UUID, quantity int) (models.CartView, error) {
	if err := models.ValidateQuantity("quantity", quantity); err != nil {
		return models.CartView{}, err
	}

	var view models.CartView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.EnsureCart(ctx, customerID)
		if err != nil {
			return err
		}
		line, err := tx.CartLine(ctx, cart.ID, dishID)
		if err != nil {
			return err
		}

		if remaining := line.Quantity - quantity; remaining > 0 {
			err = tx.UpdateCartLineQuantity(ctx, line.ID, remaining)
		} else {
			err = tx.DeleteCartLine(ctx, line.ID)
		}
		if err != nil {
			return err
		}
		view, err = viewOf(ctx, tx, cart)
		return err
	})
	if err != nil {
		return models.CartView{}, err
	}

	metrics.CartMutations.WithLabelValues("decrease").Inc()
	return view, nil
}

// RemoveItem deletes a dish's line regardless of quantity
func (s *Service) RemoveItem(ctx context.Context, customerID, dishID uuid.UUID) (models.CartView, error) {
	var view models.CartView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.EnsureCart(ctx, customerID)
		if err != nil {
			return err
		}
		line, err := tx.CartLine(ctx, cart.ID, dishID)
		if err != nil {
			return err
		}
		if err := tx.DeleteCartLine(ctx, line.ID); err != nil {
			return err
		}
		view, err = viewOf(ctx, tx, cart)
		return err
	})
	if err != nil {
		return models.CartView{}, err
	}

	metrics.CartMutations.WithLabelValues("remove").Inc()
	return view, nil
}

// ClearCart empties the customer's cart. Clearing an empty cart is a no-op.
func (s *Service) ClearCart(ctx context.Context, customerID uuid.UUID) (models.CartView, error) {
	var view models.CartView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.EnsureCart(ctx, customerID)
		if err != nil {
			return err
		}
		if err := Clear(ctx, tx, cart); err != nil {
			return err
		}
		view = models.NewCartView(cart, nil)
		return nil
	})
	if err != nil {
		return models.CartView{}, err
	}

	metrics.CartMutations.WithLabelValues("clear").Inc()
	return view, nil
}

// Clear deletes every line of cart inside the caller's transaction
func Clear(ctx context.Context, tx store.Tx, cart models.Cart) error {
	if _, err := tx.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// checkMerged rejects an add that would push an existing line past
// models.MaxQuantity. The cart row is locked by EnsureCart.
func checkMerged(ctx context.Context, tx store.Tx, cartID, dishID uuid.UUID, quantity int) error {
	line, err := tx.CartLine(ctx, cartID, dishID)
	switch {
	case models.IsKind(err, models.KindNotFound):
		return nil
	case err != nil:
		return err
	case line.Quantity+quantity > models.MaxQuantity:
		return models.InvalidQuantity("quantity")
	}
	return nil
}

func viewOf(ctx context.Context, tx store.Tx, cart models.Cart) (models.CartView, error) {
	lines, err := tx.CartLines(ctx, cart.ID)
	if err != nil {
		return models.CartView{}, err
	}
	return models.NewCartView(cart, lines), nil
}
