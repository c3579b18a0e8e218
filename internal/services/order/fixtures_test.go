package order

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"

	"food-marketplace/internal/catalog"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/services/cart"
	"food-marketplace/internal/store"
	"food-marketplace/internal/store/lite"
)

type fixture struct {
	st    *lite.Store
	log   *logger.Logger
	svc   *Service
	carts *cart.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := lite.Open(":memory:")
	if err != nil {
		t.Fatalf("lite.Open: %v", err)
	}
	t.Cleanup(st.Close)

	log := logger.NewWithWriter("order-test", io.Discard)
	return &fixture{
		st:    st,
		log:   log,
		svc:   NewService(st, catalog.NewStoreOwnership(st), log),
		carts: cart.NewService(st, log),
	}
}

func (f *fixture) restaurant(t *testing.T, owner *uuid.UUID) models.Restaurant {
	t.Helper()
	r := models.Restaurant{ID: uuid.New(), OwnerID: owner, Name: "Kebab House"}
	if err := f.st.PutRestaurant(context.Background(), r); err != nil {
		t.Fatalf("PutRestaurant: %v", err)
	}
	return r
}

func (f *fixture) dish(t *testing.T, restaurantID uuid.UUID, price string, available bool) models.Dish {
	t.Helper()
	d := models.Dish{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         "Dish " + price,
		Price:        pricing.MustParse(price),
		IsAvailable:  available,
	}
	if err := f.st.PutDish(context.Background(), d); err != nil {
		t.Fatalf("PutDish: %v", err)
	}
	return d
}

func (f *fixture) addToCart(t *testing.T, customerID, dishID uuid.UUID, quantity int) {
	t.Helper()
	if _, err := f.carts.AddItem(context.Background(), customerID, dishID, quantity); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
}

func (f *fixture) cartView(t *testing.T, customerID uuid.UUID) models.CartView {
	t.Helper()
	view, err := f.carts.GetOrCreateCart(context.Background(), customerID)
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	return view
}

func (f *fixture) read(t *testing.T, fn func(ctx context.Context, tx store.Tx) error) {
	t.Helper()
	if err := f.st.WithinTx(context.Background(), fn); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func (f *fixture) pendingEventTypes(t *testing.T) []string {
	t.Helper()
	var types []string
	f.read(t, func(ctx context.Context, tx store.Tx) error {
		events, err := tx.PendingEvents(ctx, 100)
		for _, e := range events {
			types = append(types, e.Type)
		}
		return err
	})
	return types
}

func customerOf(id uuid.UUID) models.Principal {
	return models.Principal{ID: id, Role: models.RoleCustomer}
}

func ownerOf(id uuid.UUID) models.Principal {
	return models.Principal{ID: id, Role: models.RoleRestaurantOwner}
}

func intPtr(v int) *int { return &v }
