// Package outbox relays events queued by the order and payment services to
// the message broker.
package outbox

import (
	"context"
	"fmt"
	"time"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/metrics"
	"food-marketplace/internal/models"
	"food-marketplace/internal/store"
)

// Publisher delivers one event to a broker
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event models.Event) error
}

// Relay drains the outbox on a fixed interval. Events leave in insertion
// order; a publish failure stops the batch so later events wait for the
// failed one.
type Relay struct {
	store     store.Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *logger.Logger
}

func NewRelay(st store.Store, pub Publisher, interval time.Duration, batchSize int, log *logger.Logger) *Relay {
	return &Relay{
		store:     st,
		publisher: pub,
		interval:  interval,
		batchSize: batchSize,
		logger:    log,
	}
}

// Start relays until ctx is cancelled
func (r *Relay) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	r.logger.Info("service_started", "Outbox relay started", requestID, map[string]interface{}{
		"broker":     r.publisher.Name(),
		"interval":   r.interval.String(),
		"batch_size": r.batchSize,
	})

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("graceful_shutdown", "Outbox relay stopped", requestID, nil)
			return nil
		case <-ticker.C:
			sent, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Error("outbox_relay_failed", "Failed to relay outbox batch", requestID, err, map[string]interface{}{
					"sent": sent,
				})
			} else if sent > 0 {
				r.logger.Debug("outbox_relayed", fmt.Sprintf("Relayed %d events", sent), requestID, nil)
			}
		}
	}
}

// RelayOnce publishes one batch and reports how many events were marked
// sent. Events published before a failure stay marked.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var (
		sent       int
		publishErr error
	)
	err := r.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		events, err := tx.PendingEvents(ctx, r.batchSize)
		if err != nil {
			return err
		}
		for _, event := range events {
			if err := r.publisher.Publish(ctx, event); err != nil {
				metrics.OutboxRelayed.WithLabelValues(r.publisher.Name(), "error").Inc()
				publishErr = fmt.Errorf("publish event %s (%s): %w", event.EventID, event.Type, err)
				return nil
			}
			if err := tx.MarkEventSent(ctx, event.ID); err != nil {
				return err
			}
			metrics.OutboxRelayed.WithLabelValues(r.publisher.Name(), "sent").Inc()
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, publishErr
}

// Discard is a Publisher that drops every event. It keeps the outbox
// drained when no broker is configured.
type Discard struct{}

func (Discard) Name() string { return "none" }

func (Discard) Publish(ctx context.Context, event models.Event) error { return nil }
