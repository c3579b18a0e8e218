package outbox

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
	"food-marketplace/internal/store"
	"food-marketplace/internal/store/lite"
)

type fakePublisher struct {
	published []string
	failOn    string
}

func (f *fakePublisher) Name() string { return "fake" }

func (f *fakePublisher) Publish(ctx context.Context, event models.Event) error {
	if event.Key == f.failOn {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, event.Key)
	return nil
}

func newStore(t *testing.T) *lite.Store {
	t.Helper()
	st, err := lite.Open(":memory:")
	if err != nil {
		t.Fatalf("lite.Open: %v", err)
	}
	t.Cleanup(st.Close)
	return st
}

func enqueue(t *testing.T, st store.Store, keys ...string) {
	t.Helper()
	err := st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, k := range keys {
			event, err := models.NewEvent(models.EventOrderCreated, k, map[string]string{"key": k})
			if err != nil {
				return err
			}
			if err := tx.EnqueueEvent(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
}

func pending(t *testing.T, st store.Store) int {
	t.Helper()
	var n int
	err := st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		events, err := tx.PendingEvents(ctx, 100)
		n = len(events)
		return err
	})
	if err != nil {
		t.Fatalf("PendingEvents: %v", err)
	}
	return n
}

func TestRelayOnce(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		batch       int
		failOn      string
		wantSent    int
		wantOrder   []string
		wantErr     bool
		wantPending int
	}{
		{name: "drains in order", keys: []string{"a", "b", "c"}, batch: 10, wantSent: 3, wantOrder: []string{"a", "b", "c"}},
		{name: "respects batch size", keys: []string{"a", "b", "c"}, batch: 2, wantSent: 2, wantOrder: []string{"a", "b"}, wantPending: 1},
		{name: "stops at first failure", keys: []string{"a", "b", "c"}, batch: 10, failOn: "b", wantSent: 1, wantOrder: []string{"a"}, wantErr: true, wantPending: 2},
		{name: "empty outbox", batch: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStore(t)
			enqueue(t, st, tt.keys...)
			pub := &fakePublisher{failOn: tt.failOn}
			relay := NewRelay(st, pub, time.Second, tt.batch, logger.NewWithWriter("test", io.Discard))

			sent, err := relay.RelayOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("RelayOnce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if sent != tt.wantSent {
				t.Errorf("sent = %d, want %d", sent, tt.wantSent)
			}
			if len(pub.published) != len(tt.wantOrder) {
				t.Fatalf("published %v, want %v", pub.published, tt.wantOrder)
			}
			for i := range tt.wantOrder {
				if pub.published[i] != tt.wantOrder[i] {
					t.Errorf("published %v, want %v", pub.published, tt.wantOrder)
				}
			}
			if got := pending(t, st); got != tt.wantPending {
				t.Errorf("pending = %d, want %d", got, tt.wantPending)
			}
		})
	}
}

func TestRelay_RetriesAfterFailure(t *testing.T) {
	st := newStore(t)
	enqueue(t, st, "a", "b")
	pub := &fakePublisher{failOn: "a"}
	relay := NewRelay(st, pub, time.Second, 10, logger.NewWithWriter("test", io.Discard))

	if _, err := relay.RelayOnce(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}
	pub.failOn = ""
	sent, err := relay.RelayOnce(context.Background())
	if err != nil || sent != 2 {
		t.Fatalf("RelayOnce() = %d, %v; want 2, nil", sent, err)
	}
	if pub.published[0] != "a" {
		t.Errorf("published %v, want a first", pub.published)
	}
}

func TestRelay_StartStopsOnCancel(t *testing.T) {
	st := newStore(t)
	enqueue(t, st, "a")
	pub := &fakePublisher{}
	relay := NewRelay(st, pub, 10*time.Millisecond, 10, logger.NewWithWriter("test", io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for pending(t, st) > 0 {
		select {
		case <-deadline:
			t.Fatal("relay never drained the outbox")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestDiscard(t *testing.T) {
	st := newStore(t)
	enqueue(t, st, "a", "b")
	relay := NewRelay(st, Discard{}, time.Second, 10, logger.NewWithWriter("test", io.Discard))

	if sent, err := relay.RelayOnce(context.Background()); err != nil || sent != 2 {
		t.Fatalf("RelayOnce() = %d, %v", sent, err)
	}
	if pending(t, st) != 0 {
		t.Error("outbox not drained")
	}
}
