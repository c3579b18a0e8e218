package lifecycle

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/store"
	"food-marketplace/internal/store/lite"
)

func seedPendingOrder(t *testing.T, st *lite.Store) models.Order {
	t.Helper()
	ctx := context.Background()
	r := models.Restaurant{ID: uuid.New(), Name: "Dumpling House"}
	if err := st.PutRestaurant(ctx, r); err != nil {
		t.Fatal(err)
	}
	order := models.Order{ID: uuid.New(), CustomerID: uuid.New(), RestaurantID: r.ID, Status: models.StatusPending, TotalAmount: pricing.MustParse("5.00")}
	if err := st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertOrder(ctx, &order)
	}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestApply(t *testing.T) {
	st, err := lite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(st.Close)
	ctx := context.Background()
	order := seedPendingOrder(t, st)

	err = st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return Apply(ctx, tx, &order, models.StatusPaid, "admin:x", "")
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if order.Status != models.StatusPaid {
		t.Errorf("status = %s, want paid", order.Status)
	}

	err = st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return Apply(ctx, tx, &order, models.StatusPending, "admin:x", "")
	})
	if !models.IsKind(err, models.KindInvalidTransition) {
		t.Errorf("illegal move error = %v, want invalid_transition", err)
	}
}
