package order

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"food-marketplace/internal/models"
)

func TestListForCustomer_ScopedAndNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	d := f.dish(t, f.restaurant(t, nil).ID, "5.00", true)

	var aliceOrders []uuid.UUID
	for i := 1; i <= 3; i++ {
		o, err := f.svc.CreateFromSingleDish(ctx, alice, d.ID, i)
		if err != nil {
			t.Fatalf("CreateFromSingleDish() error = %v", err)
		}
		aliceOrders = append(aliceOrders, o.ID)
	}
	if _, err := f.svc.CreateFromSingleDish(ctx, bob, d.ID, 1); err != nil {
		t.Fatalf("CreateFromSingleDish() error = %v", err)
	}

	orders, err := f.svc.ListForCustomer(ctx, alice, models.Page{})
	if err != nil {
		t.Fatalf("ListForCustomer() error = %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("orders = %d, want 3", len(orders))
	}
	for i, o := range orders {
		if o.CustomerID != alice {
			t.Errorf("orders[%d] belongs to %s", i, o.CustomerID)
		}
		if want := aliceOrders[len(aliceOrders)-1-i]; o.ID != want {
			t.Errorf("orders[%d] = %s, want %s", i, o.ID, want)
		}
		if len(o.Items) != 1 {
			t.Errorf("orders[%d] items = %d, want 1", i, len(o.Items))
		}
	}

	page, err := f.svc.ListForCustomer(ctx, alice, models.Page{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListForCustomer() error = %v", err)
	}
	if len(page) != 1 || page[0].ID != aliceOrders[1] {
		t.Errorf("paged result = %+v", page)
	}
}

func TestListForRestaurantOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	mine := f.restaurant(t, &owner)
	theirs := f.restaurant(t, nil)
	myDish := f.dish(t, mine.ID, "10.00", true)
	theirDish := f.dish(t, theirs.ID, "10.00", true)

	first, err := f.svc.CreateFromSingleDish(ctx, uuid.New(), myDish.ID, 1)
	if err != nil {
		t.Fatalf("CreateFromSingleDish() error = %v", err)
	}
	if _, err := f.svc.CreateFromSingleDish(ctx, uuid.New(), myDish.ID, 1); err != nil {
		t.Fatalf("CreateFromSingleDish() error = %v", err)
	}
	if _, err := f.svc.CreateFromSingleDish(ctx, uuid.New(), theirDish.ID, 1); err != nil {
		t.Fatalf("CreateFromSingleDish() error = %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, first.ID, ownerOf(owner), "cancelled", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	tests := []struct {
		name     string
		owner    uuid.UUID
		status   string
		want     int
		wantKind models.ErrorKind
	}{
		{name: "all statuses", owner: owner, want: 2},
		{name: "pending only", owner: owner, status: "pending", want: 1},
		{name: "cancelled only", owner: owner, status: "cancelled", want: 1},
		{name: "delivered none", owner: owner, status: "delivered", want: 0},
		{name: "bad status", owner: owner, status: "lost", wantKind: models.KindValidation},
		{name: "owner without restaurant", owner: uuid.New(), wantKind: models.KindNoRestaurant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := f.svc.ListForRestaurantOwner(ctx, tt.owner, tt.status, models.Page{})
			if tt.wantKind != "" {
				if !models.IsKind(err, tt.wantKind) {
					t.Fatalf("error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListForRestaurantOwner() error = %v", err)
			}
			if len(orders) != tt.want {
				t.Fatalf("orders = %d, want %d", len(orders), tt.want)
			}
			for _, o := range orders {
				if o.RestaurantID != mine.ID {
					t.Errorf("order %s of restaurant %s leaked", o.ID, o.RestaurantID)
				}
			}
		})
	}
}

func TestGetAndHistory_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer, owner, strangerOwner := uuid.New(), uuid.New(), uuid.New()
	r := f.restaurant(t, &owner)
	f.restaurant(t, &strangerOwner)
	d := f.dish(t, r.ID, "3.30", true)

	order, err := f.svc.CreateFromSingleDish(ctx, customer, d.ID, 1)
	if err != nil {
		t.Fatalf("CreateFromSingleDish() error = %v", err)
	}

	tests := []struct {
		name     string
		orderID  uuid.UUID
		p        models.Principal
		wantKind models.ErrorKind
	}{
		{"ordering customer", order.ID, customerOf(customer), ""},
		{"restaurant owner", order.ID, ownerOf(owner), ""},
		{"admin", order.ID, models.Principal{ID: uuid.New(), Role: models.RoleAdmin}, ""},
		{"other customer", order.ID, customerOf(uuid.New()), models.KindPermissionDenied},
		{"other owner", order.ID, ownerOf(strangerOwner), models.KindPermissionDenied},
		{"unknown order", uuid.New(), customerOf(customer), models.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Get(ctx, tt.orderID, tt.p)
			history, herr := f.svc.History(ctx, tt.orderID, tt.p)
			if tt.wantKind != "" {
				if !models.IsKind(err, tt.wantKind) || !models.IsKind(herr, tt.wantKind) {
					t.Fatalf("errors = %v / %v, want kind %s", err, herr, tt.wantKind)
				}
				return
			}
			if err != nil || herr != nil {
				t.Fatalf("errors = %v / %v", err, herr)
			}
			if got.ID != order.ID || len(got.Items) != 1 {
				t.Errorf("unexpected order %+v", got)
			}
			if len(history) != 1 || history[0].Status != models.StatusPending {
				t.Errorf("unexpected history %+v", history)
			}
		})
	}
}
