// Package catalog resolves restaurant ownership, either from the local
// catalog tables or from the catalog service over HTTP.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"food-marketplace/internal/store"
)

// OwnershipLookup maps a restaurant owner to their restaurant. ok is false
// when the owner has none.
type OwnershipLookup interface {
	RestaurantForOwner(ctx context.Context, ownerID uuid.UUID) (restaurantID uuid.UUID, ok bool, err error)
}

// StoreOwnership reads ownership from the restaurants table
type StoreOwnership struct {
	store store.Store
}

func NewStoreOwnership(st store.Store) *StoreOwnership {
	return &StoreOwnership{store: st}
}

func (o *StoreOwnership) RestaurantForOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, bool, error) {
	var (
		restaurantID uuid.UUID
		found        bool
	)
	err := o.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		restaurantID, found, err = tx.RestaurantForOwner(ctx, ownerID)
		return err
	})
	return restaurantID, found, err
}
