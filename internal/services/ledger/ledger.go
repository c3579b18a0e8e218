// Package ledger records the single payment intent of an order and the
// confirmations reported for it by the payment collaborator.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/metrics"
	"food-marketplace/internal/models"
	"food-marketplace/internal/services/lifecycle"
	"food-marketplace/internal/store"
)

const (
	referencePrefix = "TXN-"
	referenceLength = 20
)

// Reference derives the transaction reference from the order id. The same
// order always yields the same reference.
func Reference(orderID uuid.UUID) string {
	sum := sha256.Sum256([]byte(orderID.String()))
	return referencePrefix + strings.ToUpper(hex.EncodeToString(sum[:]))[:referenceLength]
}

type Service struct {
	store  store.Store
	logger *logger.Logger
}

func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		logger: log,
	}
}

// Open creates the transaction for one of the customer's pending orders
func (s *Service) Open(ctx context.Context, orderID, customerID uuid.UUID) (models.Transaction, error) {
	var txn models.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.Order(ctx, orderID, true)
		if err != nil {
			return err
		}
		txn, err = OpenTx(ctx, tx, &order, customerID)
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.TransactionsTotal.WithLabelValues(string(txn.Status)).Inc()
	return txn, nil
}

// OpenTx opens the transaction inside the caller's database transaction.
// The order row should already be locked by the caller.
func OpenTx(ctx context.Context, tx store.Tx, order *models.Order, customerID uuid.UUID) (models.Transaction, error) {
	if order.CustomerID != customerID {
		return models.Transaction{}, models.PermissionDenied()
	}

	_, err := tx.TransactionByOrder(ctx, order.ID)
	switch {
	case err == nil:
		return models.Transaction{}, models.Conflict("a transaction already exists for this order")
	case !models.IsKind(err, models.KindNotFound):
		return models.Transaction{}, err
	}

	if order.Status != models.StatusPending {
		return models.Transaction{}, models.InvalidTransition(string(order.Status), "paid")
	}

	txn := models.Transaction{
		ID:         uuid.New(),
		OrderID:    order.ID,
		CustomerID: customerID,
		Amount:     order.TotalAmount,
		Reference:  Reference(order.ID),
		Status:     models.TransactionInitiated,
	}
	if err := tx.InsertTransaction(ctx, &txn); err != nil {
		return models.Transaction{}, err
	}

	event, err := models.CreateTransactionEvent(models.EventTransactionOpened, &txn)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := tx.EnqueueEvent(ctx, event); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to enqueue transaction event: %w", err)
	}
	return txn, nil
}

// MarkStatus settles an initiated transaction
func (s *Service) MarkStatus(ctx context.Context, transactionID uuid.UUID, status models.TransactionStatus, actor string) (models.Transaction, error) {
	return s.mark(ctx, func(ctx context.Context, tx store.Tx) (models.Transaction, error) {
		return tx.TransactionByID(ctx, transactionID, true)
	}, status, actor)
}

// MarkStatusByReference settles the transaction carrying reference
func (s *Service) MarkStatusByReference(ctx context.Context, reference string, status models.TransactionStatus, actor string) (models.Transaction, error) {
	return s.mark(ctx, func(ctx context.Context, tx store.Tx) (models.Transaction, error) {
		return tx.TransactionByReference(ctx, reference, true)
	}, status, actor)
}

func (s *Service) mark(ctx context.Context, load func(context.Context, store.Tx) (models.Transaction, error), status models.TransactionStatus, actor string) (models.Transaction, error) {
	var (
		txn  models.Transaction
		paid bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		txn, err = load(ctx, tx)
		if err != nil {
			return err
		}
		paid, err = settle(ctx, tx, &txn, status, actor)
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	metrics.TransactionsTotal.WithLabelValues(string(txn.Status)).Inc()
	if paid {
		metrics.OrderTransitions.WithLabelValues(string(models.StatusPaid)).Inc()
	}
	s.logger.Info("transaction_settled", "Transaction status updated", "", map[string]interface{}{
		"transaction_id": txn.ID.String(),
		"order_id":       txn.OrderID.String(),
		"reference":      txn.Reference,
		"status":         string(txn.Status),
	})
	return txn, nil
}

// settle moves txn to a terminal status. Success also marks a pending
// order as paid, reported by the returned flag.
func settle(ctx context.Context, tx store.Tx, txn *models.Transaction, status models.TransactionStatus, actor string) (bool, error) {
	if txn.Status.Terminal() || !status.Terminal() {
		return false, models.InvalidTransition(string(txn.Status), string(status))
	}

	if err := tx.SetTransactionStatus(ctx, txn.ID, status); err != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}
	txn.Status = status

	event, err := models.CreateTransactionEvent(models.EventTransactionStatusChanged, txn)
	if err != nil {
		return false, err
	}
	if err := tx.EnqueueEvent(ctx, event); err != nil {
		return false, fmt.Errorf("failed to enqueue transaction event: %w", err)
	}

	if status != models.TransactionSuccess {
		return false, nil
	}

	order, err := tx.Order(ctx, txn.OrderID, true)
	if err != nil {
		return false, err
	}
	if order.Status != models.StatusPending {
		return false, nil
	}
	if err := lifecycle.Apply(ctx, tx, &order, models.StatusPaid, actor, "payment "+txn.Reference); err != nil {
		return false, err
	}
	return true, nil
}
