package order

import (
	"context"

	"github.com/google/uuid"

	"food-marketplace/internal/models"
	"food-marketplace/internal/store"
)

// ListForCustomer returns the customer's orders, newest first
func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID, page models.Page) ([]models.Order, error) {
	return s.list(ctx, store.OrderFilter{CustomerID: &customerID, Page: page})
}

// ListForRestaurantOwner returns the orders of the owner's restaurant,
// newest first. An empty status returns every status.
func (s *Service) ListForRestaurantOwner(ctx context.Context, ownerID uuid.UUID, status string, page models.Page) ([]models.Order, error) {
	filter := store.OrderFilter{Page: page}
	if status != "" {
		st, err := models.ParseOrderStatus("status", status)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}

	restaurantID, err := s.restaurantOf(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	filter.RestaurantID = &restaurantID
	return s.list(ctx, filter)
}

// Get returns an order with its items if p may see it
func (s *Service) Get(ctx context.Context, orderID uuid.UUID, p models.Principal) (models.Order, error) {
	var order models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if order, err = tx.Order(ctx, orderID, false); err != nil {
			return err
		}
		order.Items, err = tx.OrderItems(ctx, orderID)
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	if err := s.authorize(ctx, order, p); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// History returns the order's status log, oldest first
func (s *Service) History(ctx context.Context, orderID uuid.UUID, p models.Principal) ([]models.OrderStatusHistory, error) {
	var (
		order   models.Order
		history []models.OrderStatusHistory
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if order, err = tx.Order(ctx, orderID, false); err != nil {
			return err
		}
		history, err = tx.StatusHistory(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, order, p); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Service) list(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		orders, err = tx.ListOrders(ctx, filter)
		return err
	})
	return orders, err
}

func (s *Service) restaurantOf(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	restaurantID, ok, err := s.ownership.RestaurantForOwner(ctx, ownerID)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, models.NoRestaurant()
	}
	return restaurantID, nil
}

// authorize lets the ordering customer, the restaurant's owner and admins
// see an order
func (s *Service) authorize(ctx context.Context, order models.Order, p models.Principal) error {
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if order.CustomerID == p.ID {
			return nil
		}
	case models.RoleRestaurantOwner:
		restaurantID, ok, err := s.ownership.RestaurantForOwner(ctx, p.ID)
		if err != nil {
			return err
		}
		if ok && restaurantID == order.RestaurantID {
			return nil
		}
	}
	return models.PermissionDenied()
}
