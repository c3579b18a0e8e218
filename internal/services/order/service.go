// Package order builds orders from carts or explicit requests, answers
// role-scoped order queries and applies customer and restaurant status
// changes.
package order

import (
	"food-marketplace/internal/catalog"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/store"
)

// Order sources, reported on order.created events and metrics
const (
	SourceItems  = "items"
	SourceSingle = "single_dish"
	SourceCart   = "cart"
)

type Service struct {
	store     store.Store
	ownership catalog.OwnershipLookup
	logger    *logger.Logger
}

func NewService(st store.Store, ownership catalog.OwnershipLookup, log *logger.Logger) *Service {
	return &Service{
		store:     st,
		ownership: ownership,
		logger:    log,
	}
}
