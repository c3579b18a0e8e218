package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"food-marketplace/internal/pricing"
)

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPreparing, false},
		{StatusPaid, StatusPreparing, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false},
		{StatusPreparing, StatusDelivered, true},
		{StatusPreparing, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	for _, s := range orderStatuses {
		want := s == StatusDelivered || s == StatusCancelled
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v", s, s.Terminal())
		}
		if s.Terminal() && len(orderTransitions[s]) != 0 {
			t.Errorf("terminal status %s has outgoing transitions", s)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if s, err := ParseOrderStatus("status", " Paid "); err != nil || s != StatusPaid {
		t.Errorf("got %q, %v", s, err)
	}
	_, err := ParseOrderStatus("status", "shipped")
	if KindOf(err) != KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParseTransactionStatus(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"success", false},
		{"FAILED", false},
		{"initiated", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseTransactionStatus("status", tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTransactionStatus(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	zero := 0
	two := 2
	huge := MaxQuantity + 1
	dish := uuid.New()

	tests := []struct {
		name     string
		req      CreateOrderRequest
		wantKind ErrorKind
	}{
		{
			name: "valid request with default quantity",
			req:  CreateOrderRequest{RestaurantID: uuid.New(), Items: []ItemRequest{{DishID: dish}}},
		},
		{
			name: "valid request with quantity",
			req:  CreateOrderRequest{RestaurantID: uuid.New(), Items: []ItemRequest{{DishID: dish, Quantity: &two}}},
		},
		{
			name:     "missing restaurant",
			req:      CreateOrderRequest{Items: []ItemRequest{{DishID: dish}}},
			wantKind: KindValidation,
		},
		{
			name:     "empty items",
			req:      CreateOrderRequest{RestaurantID: uuid.New()},
			wantKind: KindValidation,
		},
		{
			name:     "missing dish id",
			req:      CreateOrderRequest{RestaurantID: uuid.New(), Items: []ItemRequest{{}}},
			wantKind: KindValidation,
		},
		{
			name:     "zero quantity",
			req:      CreateOrderRequest{RestaurantID: uuid.New(), Items: []ItemRequest{{DishID: dish, Quantity: &zero}}},
			wantKind: KindInvalidQuantity,
		},
		{
			name:     "quantity above maximum",
			req:      CreateOrderRequest{RestaurantID: uuid.New(), Items: []ItemRequest{{DishID: dish, Quantity: &huge}}},
			wantKind: KindInvalidQuantity,
		},
		{
			name:     "same dish twice",
			req:      CreateOrderRequest{RestaurantID: uuid.New(), Items: []ItemRequest{{DishID: dish}, {DishID: dish, Quantity: &two}}},
			wantKind: KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if got := KindOf(err); got != tt.wantKind {
				t.Errorf("Validate() kind = %q, want %q (err %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	tests := []struct {
		quantity int
		ok       bool
	}{
		{0, false},
		{-1, false},
		{1, true},
		{MaxQuantity, true},
		{MaxQuantity + 1, false},
		{1 << 62, false},
	}
	for _, tt := range tests {
		err := ValidateQuantity("quantity", tt.quantity)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateQuantity(%d) = %v, want ok=%v", tt.quantity, err, tt.ok)
		}
		if err != nil && !IsKind(err, KindInvalidQuantity) {
			t.Errorf("ValidateQuantity(%d) kind = %q", tt.quantity, KindOf(err))
		}
	}
}

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Limit: DefaultPageLimit}},
		{Page{Limit: 10, Offset: 5}, Page{Limit: 10, Offset: 5}},
		{Page{Limit: 1000, Offset: -3}, Page{Limit: MaxPageLimit}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", EmptyCart())
	if !IsKind(err, KindEmptyCart) {
		t.Errorf("expected empty_cart, got %q", KindOf(err))
	}
	if KindOf(fmt.Errorf("plain")) != "" {
		t.Error("plain errors have no kind")
	}
}

func TestNewCartView_Totals(t *testing.T) {
	lines := []CartLine{
		{DishID: uuid.New(), Quantity: 2, Price: pricing.MustParse("10.00")},
		{DishID: uuid.New(), Quantity: 1, Price: pricing.MustParse("5.50")},
	}
	view := NewCartView(Cart{ID: uuid.New()}, lines)

	if view.Total.String() != "25.50" {
		t.Errorf("total = %s", view.Total)
	}
	if view.Items[0].Subtotal.String() != "20.00" {
		t.Errorf("subtotal = %s", view.Items[0].Subtotal)
	}

	b, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["total"] != "25.50" {
		t.Errorf("json total = %v", decoded["total"])
	}
}

func TestCreateStatusUpdateEvent(t *testing.T) {
	order := &Order{ID: uuid.New(), RestaurantID: uuid.New(), Status: StatusPaid}
	ev, err := CreateStatusUpdateEvent(order, StatusPending, "system")
	if err != nil {
		t.Fatalf("CreateStatusUpdateEvent: %v", err)
	}
	if ev.Type != EventOrderStatusChanged || ev.Key != order.ID.String() {
		t.Errorf("unexpected event header %+v", ev)
	}

	var msg StatusUpdateMessage
	if err := json.Unmarshal(ev.Payload, &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg.OldStatus != "pending" || msg.NewStatus != "paid" {
		t.Errorf("payload = %+v", msg)
	}
}
