// Package payment consumes settlement reports from payment collaborators
// and applies them to the transaction ledger.
package payment

import (
	"context"
	"fmt"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/messaging"
	"food-marketplace/internal/models"
)

// Actor is recorded as the author of changes made from confirmations
const Actor = "payment-gateway"

// Settler applies a terminal status to a transaction by reference
type Settler interface {
	MarkStatusByReference(ctx context.Context, reference string, status models.TransactionStatus, actor string) (models.Transaction, error)
}

type consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber handles payment confirmation messages
type Subscriber struct {
	consumer consumer
	ledger   Settler
	logger   *logger.Logger
}

func NewSubscriber(c consumer, ledger Settler, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: c,
		ledger:   ledger,
		logger:   log,
	}
}

// Start consumes until ctx is cancelled or the consumer gives up
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Payment subscriber started", requestID, map[string]interface{}{
		"queue": messaging.PaymentConfirmationsQueue,
	})

	err := s.consumer.StartConsuming(ctx, s.HandleConfirmation)

	s.logger.Info("graceful_shutdown", "Payment subscriber stopping", requestID, nil)
	if closeErr := s.consumer.Close(); closeErr != nil {
		s.logger.Error("shutdown_failed", "Failed to close consumer", requestID, closeErr, nil)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("payment consumer failed: %w", err)
	}
	return nil
}

// HandleConfirmation settles the referenced transaction. A confirmation for
// an already settled transaction is acknowledged and dropped; malformed or
// unknown references are dead-lettered.
func (s *Subscriber) HandleConfirmation(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.PaymentConfirmationMessage
	if err := messaging.ParseMessage(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse payment confirmation", requestID, err, nil)
		return messaging.Permanent(fmt.Errorf("failed to parse confirmation: %w", err))
	}

	status, err := models.ParseTransactionStatus("status", msg.Status)
	if err != nil {
		return messaging.Permanent(err)
	}

	txn, err := s.ledger.MarkStatusByReference(ctx, msg.Reference, status, Actor)
	switch models.KindOf(err) {
	case "":
		if err != nil {
			return err
		}
	case models.KindInvalidTransition:
		s.logger.Warn("confirmation_ignored", "Transaction already settled", requestID, map[string]interface{}{
			"reference": msg.Reference,
			"status":    msg.Status,
		})
		return nil
	default:
		s.logger.Warn("confirmation_rejected", err.Error(), requestID, map[string]interface{}{
			"reference": msg.Reference,
		})
		return messaging.Permanent(err)
	}

	s.logger.Info("payment_confirmed", fmt.Sprintf("Transaction %s is %s", txn.Reference, txn.Status), requestID, map[string]interface{}{
		"reference":      txn.Reference,
		"order_id":       txn.OrderID.String(),
		"status":         string(txn.Status),
		"gateway_ref":    msg.GatewayRef,
		"transaction_id": txn.ID.String(),
	})
	return nil
}
