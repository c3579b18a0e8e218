package order

import (
	"context"

	"github.com/google/uuid"

	"food-marketplace/internal/metrics"
	"food-marketplace/internal/models"
	"food-marketplace/internal/services/lifecycle"
	"food-marketplace/internal/store"
)

// UpdateStatus moves an order of the owner's restaurant along the status
// machine. Paid is reserved to payment confirmations.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, owner models.Principal, rawStatus, notes string) (models.Order, error) {
	to, err := models.ParseOrderStatus("status", rawStatus)
	if err != nil {
		return models.Order{}, err
	}
	if to == models.StatusPaid {
		return models.Order{}, models.Validation("status", "paid is set by payment confirmation")
	}

	restaurantID, err := s.restaurantOf(ctx, owner.ID)
	if err != nil {
		return models.Order{}, err
	}

	order, err := s.transition(ctx, orderID, to, owner.Actor(), notes, func(o models.Order) error {
		if o.RestaurantID != restaurantID {
			return models.PermissionDenied()
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	s.logger.Info("order_status_updated", "Order status updated", "", map[string]interface{}{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
		"by":       owner.Actor(),
	})
	return order, nil
}

// Cancel lets a customer cancel their own order while it is still pending
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, customer models.Principal) (models.Order, error) {
	return s.transition(ctx, orderID, models.StatusCancelled, customer.Actor(), "cancelled by customer", func(o models.Order) error {
		if o.CustomerID != customer.ID {
			return models.PermissionDenied()
		}
		if o.Status != models.StatusPending {
			return models.InvalidTransition(string(o.Status), string(models.StatusCancelled))
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, actor, notes string, allow func(models.Order) error) (models.Order, error) {
	var order models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if order, err = tx.Order(ctx, orderID, true); err != nil {
			return err
		}
		if err := allow(order); err != nil {
			return err
		}
		if err := lifecycle.Apply(ctx, tx, &order, to, actor, notes); err != nil {
			return err
		}
		order.Items, err = tx.OrderItems(ctx, orderID)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	return order, nil
}
