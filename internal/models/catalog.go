package models

import (
	"time"

	"github.com/google/uuid"

	"food-marketplace/internal/pricing"
)

// Dish is a read-only catalog entry
type Dish struct {
	ID           uuid.UUID     `json:"id"`
	RestaurantID uuid.UUID     `json:"restaurant_id"`
	Name         string        `json:"name"`
	Price        pricing.Money `json:"price"`
	IsAvailable  bool          `json:"is_available"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Restaurant is a read-only catalog entry. OwnerID is unset for restaurants
// without an owner account.
type Restaurant struct {
	ID      uuid.UUID  `json:"id"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
	Name    string     `json:"name"`
}
