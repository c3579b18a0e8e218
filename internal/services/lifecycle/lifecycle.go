// Package lifecycle writes order status changes. Every change updates the
// order, appends to the status log and queues an outbox event in the
// caller's database transaction.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"food-marketplace/internal/models"
	"food-marketplace/internal/store"
)

// Record logs the initial status of a freshly inserted order
func Record(ctx context.Context, tx store.Tx, order *models.Order, changedBy, notes string) error {
	return tx.AppendStatusLog(ctx, models.OrderStatusHistory{
		OrderID:   order.ID,
		Status:    order.Status,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
		Notes:     optional(notes),
	})
}

// Apply moves order to status to. order.Status is updated in place on
// success. Callers count the transition once their transaction commits.
func Apply(ctx context.Context, tx store.Tx, order *models.Order, to models.OrderStatus, changedBy, notes string) error {
	from := order.Status
	if !from.CanTransitionTo(to) {
		return models.InvalidTransition(string(from), string(to))
	}

	if err := tx.SetOrderStatus(ctx, order.ID, to); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = to

	if err := Record(ctx, tx, order, changedBy, notes); err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}

	event, err := models.CreateStatusUpdateEvent(order, from, changedBy)
	if err != nil {
		return err
	}
	if err := tx.EnqueueEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to enqueue status event: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
