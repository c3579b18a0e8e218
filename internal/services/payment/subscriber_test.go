package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/messaging"
	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/services/ledger"
	"food-marketplace/internal/store"
	"food-marketplace/internal/store/lite"
)

type env struct {
	st     *lite.Store
	ledger *ledger.Service
	sub    *Subscriber
}

func newEnv(t *testing.T, c consumer) *env {
	t.Helper()
	st, err := lite.Open(":memory:")
	if err != nil {
		t.Fatalf("lite.Open: %v", err)
	}
	t.Cleanup(st.Close)
	log := logger.NewWithWriter("payment-test", io.Discard)
	l := ledger.NewService(st, log)
	return &env{st: st, ledger: l, sub: NewSubscriber(c, l, log)}
}

// openTransaction seeds a pending order and opens its transaction
func (e *env) openTransaction(t *testing.T) models.Transaction {
	t.Helper()
	ctx := context.Background()
	customerID := uuid.New()
	r := models.Restaurant{ID: uuid.New(), Name: "Taqueria"}
	if err := e.st.PutRestaurant(ctx, r); err != nil {
		t.Fatal(err)
	}
	d := models.Dish{ID: uuid.New(), RestaurantID: r.ID, Name: "Taco", Price: pricing.MustParse("4.00"), IsAvailable: true}
	if err := e.st.PutDish(ctx, d); err != nil {
		t.Fatal(err)
	}
	order := models.Order{ID: uuid.New(), CustomerID: customerID, RestaurantID: r.ID, Status: models.StatusPending, TotalAmount: d.Price}
	err := e.st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}
		return tx.InsertOrderItem(ctx, &models.OrderItem{ID: uuid.New(), OrderID: order.ID, DishID: d.ID, Quantity: 1, Price: d.Price})
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}

	txn, err := e.ledger.Open(ctx, order.ID, customerID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return txn
}

func (e *env) orderStatus(t *testing.T, id uuid.UUID) models.OrderStatus {
	t.Helper()
	var status models.OrderStatus
	err := e.st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Order(ctx, id, false)
		status = o.Status
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return status
}

func body(t *testing.T, reference, status string) []byte {
	t.Helper()
	b, err := json.Marshal(models.PaymentConfirmationMessage{Reference: reference, Status: status, GatewayRef: "gw-1"})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleConfirmation(t *testing.T) {
	tests := []struct {
		name          string
		status        string
		wantOrder     models.OrderStatus
		wantTxnStatus models.TransactionStatus
	}{
		{name: "success pays the order", status: "success", wantOrder: models.StatusPaid, wantTxnStatus: models.TransactionSuccess},
		{name: "failure leaves order pending", status: "FAILED", wantOrder: models.StatusPending, wantTxnStatus: models.TransactionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			txn := e.openTransaction(t)

			if err := e.sub.HandleConfirmation(context.Background(), body(t, txn.Reference, tt.status)); err != nil {
				t.Fatalf("HandleConfirmation: %v", err)
			}
			if got := e.orderStatus(t, txn.OrderID); got != tt.wantOrder {
				t.Errorf("order status = %s, want %s", got, tt.wantOrder)
			}

			var settled models.Transaction
			err := e.st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
				var err error
				settled, err = tx.TransactionByReference(ctx, txn.Reference, false)
				return err
			})
			if err != nil {
				t.Fatal(err)
			}
			if settled.Status != tt.wantTxnStatus {
				t.Errorf("transaction status = %s, want %s", settled.Status, tt.wantTxnStatus)
			}
		})
	}
}

func TestHandleConfirmation_Redelivery(t *testing.T) {
	e := newEnv(t, nil)
	txn := e.openTransaction(t)
	msg := body(t, txn.Reference, "success")

	if err := e.sub.HandleConfirmation(context.Background(), msg); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := e.sub.HandleConfirmation(context.Background(), msg); err != nil {
		t.Fatalf("redelivery should be acknowledged, got %v", err)
	}
	if got := e.orderStatus(t, txn.OrderID); got != models.StatusPaid {
		t.Errorf("order status = %s, want paid", got)
	}
}

func TestHandleConfirmation_DeadLetters(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "malformed json", body: []byte(`{not json`)},
		{name: "non terminal status", body: body(t, "TXN-00000000000000000000", "initiated")},
		{name: "unknown reference", body: body(t, "TXN-00000000000000000000", "success")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			err := e.sub.HandleConfirmation(context.Background(), tt.body)
			if !messaging.IsPermanent(err) {
				t.Fatalf("err = %v, want permanent", err)
			}
		})
	}
}

type stubConsumer struct {
	err    error
	closed bool
}

func (s *stubConsumer) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubConsumer) Close() error {
	s.closed = true
	return nil
}

func TestStart(t *testing.T) {
	t.Run("cancel stops cleanly", func(t *testing.T) {
		c := &stubConsumer{}
		e := newEnv(t, c)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := e.sub.Start(ctx); err != nil {
			t.Fatalf("Start() = %v", err)
		}
		if !c.closed {
			t.Error("consumer not closed")
		}
	})

	t.Run("consumer failure surfaces", func(t *testing.T) {
		boom := errors.New("channel gone")
		e := newEnv(t, &stubConsumer{err: boom})
		if err := e.sub.Start(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("Start() = %v, want %v", err, boom)
		}
	})
}
