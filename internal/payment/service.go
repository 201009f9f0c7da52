package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errors "github.com/afepanou/payments/internal"
	moncashtypes "github.com/afepanou/payments/internal/core/datamodel/moncash"
	"github.com/afepanou/payments/internal/core/datamodel/transaction"
	"github.com/afepanou/payments/internal/core/events"
	"github.com/google/uuid"
)

// Service drives the payment lifecycle: initiating attempts with the
// provider and reconciling local state against the provider's authoritative
// answer. All terminal transitions go through guarded repository updates,
// so running several server processes is safe.
type Service struct {
	repo     RepositoryAPI
	orders   OrderAPI
	provider ProviderAPI
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, orders OrderAPI, provider ProviderAPI, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		orders:   orders,
		provider: provider,
		eventBus: eventBus,
		logger:   logger,
	}
}

// generateExternalOrderID produces the order reference sent to MonCash.
// Each attempt gets a fresh one; the provider rejects duplicate order ids.
func generateExternalOrderID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:12])
}

// Initiate registers a payment attempt with MonCash for a pending order and
// persists the transaction. The provider is called before anything is
// written: a rejected request leaves no row behind.
func (s *Service) Initiate(ctx context.Context, orderID int64) (*InitiateResult, error) {
	o, err := s.orders.GetOrder(orderID)
	if err != nil {
		s.logger.Error("initiate: order lookup failed", "error", err, "order_id", orderID)
		return nil, err
	}

	if !o.Payable() {
		s.logger.Warn("initiate rejected, order not payable",
			"order_id", o.ID,
			"order_status", o.Status)
		return nil, errors.ErrInvalidOrderState
	}

	externalOrderID := generateExternalOrderID()

	token, err := s.provider.CreatePayment(ctx, externalOrderID, o.AmountCentimes)
	if err != nil {
		s.logger.Error("initiate: provider rejected payment creation",
			"error", err,
			"order_id", o.ID,
			"external_order_id", externalOrderID)
		return nil, err
	}

	txn := &transaction.PaymentTransaction{
		OrderID:         o.ID,
		ExternalOrderID: externalOrderID,
		AmountCentimes:  o.AmountCentimes,
		Currency:        o.Currency,
		Status:          transaction.StatusInitiated,
		PaymentToken:    token.Token,
	}

	if err := s.repo.Create(txn); err != nil {
		s.logger.Error("initiate: failed to persist transaction",
			"error", err,
			"order_id", o.ID,
			"external_order_id", externalOrderID)
		return nil, errors.NewInternalError("failed to persist payment transaction", err)
	}

	s.eventBus.Publish(ctx, events.NewPaymentInitiatedEvent(txn.ID, o.ID, externalOrderID, o.AmountCentimes))

	s.logger.Info("payment initiated",
		"transaction_id", txn.ID,
		"order_id", o.ID,
		"external_order_id", externalOrderID,
		"amount_centimes", o.AmountCentimes)

	return &InitiateResult{
		TransactionID:   txn.ID,
		ExternalOrderID: externalOrderID,
		PaymentToken:    token.Token,
		PaymentURL:      s.provider.GatewayURL(token.Token),
	}, nil
}

// Reconcile aligns a local transaction with the provider's authoritative
// status. The callback's own status field is never consulted: MonCash is
// re-queried every time, because redirect parameters can be spoofed or
// stale. Reconciling an already-successful transaction is a no-op.
func (s *Service) Reconcile(ctx context.Context, ref CallbackRef) (*transaction.PaymentTransaction, error) {
	if ref.Empty() {
		return nil, errors.ErrTransactionNotFound
	}

	txn, err := s.resolveTransaction(ref)
	if err != nil {
		return nil, err
	}

	if txn.IsSuccessful() {
		s.logger.Info("reconcile skipped, transaction already successful",
			"transaction_id", txn.ID,
			"order_id", txn.OrderID)
		return txn, nil
	}

	details, err := s.retrieveAuthoritative(ctx, txn)
	if err != nil {
		// transaction keeps its current status; the poll command will
		// pick it up later
		s.logger.Error("reconcile: provider lookup failed",
			"error", err,
			"transaction_id", txn.ID)
		return nil, err
	}

	// The provider record must belong to this transaction. A callback can
	// pair a real transaction id with someone else's order id; confirming
	// it here would settle the wrong row.
	if details.OrderID != "" && details.OrderID != txn.ExternalOrderID {
		s.logger.Warn("reconcile: provider record belongs to a different order, ignoring",
			"transaction_id", txn.ID,
			"external_order_id", txn.ExternalOrderID,
			"provider_order_id", details.OrderID)
		return nil, errors.ErrTransactionNotFound
	}

	raw, _ := json.Marshal(details)
	oldStatus := txn.Status

	switch MapProviderMessage(details.Message) {
	case transaction.StatusSuccess:
		return s.applySuccess(ctx, txn, details.TransactionID, details.Payer, oldStatus, raw)

	case transaction.StatusFailed:
		return s.applyFailure(ctx, txn, details.TransactionID, details.Message, oldStatus, raw)

	default:
		// still in flight at the provider; record what we learned but
		// keep the attempt open
		providerTxnID := nilIfEmpty(details.TransactionID)
		if _, err := s.repo.MarkPending(txn.ID, providerTxnID, raw); err != nil {
			return nil, errors.NewInternalError("failed to record pending status", err)
		}
		s.logger.Info("reconcile: provider still pending",
			"transaction_id", txn.ID,
			"order_id", txn.OrderID)
		return s.repo.GetByID(txn.ID)
	}
}

// resolveTransaction finds the local row for a callback: provider
// transaction id first, then the MonCash order id.
func (s *Service) resolveTransaction(ref CallbackRef) (*transaction.PaymentTransaction, error) {
	if ref.ProviderTransactionID != "" {
		txn, err := s.repo.GetByProviderTransactionID(ref.ProviderTransactionID)
		if err == nil {
			return txn, nil
		}
		if appErr, ok := errors.IsAppError(err); !ok || appErr.Code != errors.ErrCodeTransactionNotFound {
			return nil, err
		}
		// unknown transaction id locally; fall back to the order id
	}

	if ref.ExternalOrderID != "" {
		return s.repo.GetByExternalOrderID(ref.ExternalOrderID)
	}

	return nil, errors.ErrTransactionNotFound
}

// retrieveAuthoritative queries the provider using identifiers the row
// itself vouches for, never a callback-supplied transaction id the row does
// not already carry. A forged id therefore cannot select a different
// payment record.
func (s *Service) retrieveAuthoritative(ctx context.Context, txn *transaction.PaymentTransaction) (*moncashtypes.PaymentDetails, error) {
	if txn.ProviderTransactionID != nil && *txn.ProviderTransactionID != "" {
		return s.provider.RetrieveByTransactionID(ctx, *txn.ProviderTransactionID)
	}
	return s.provider.RetrieveByOrderID(ctx, txn.ExternalOrderID)
}

func (s *Service) applySuccess(ctx context.Context, txn *transaction.PaymentTransaction, providerTxnID, payer, oldStatus string, raw json.RawMessage) (*transaction.PaymentTransaction, error) {
	changed, err := s.repo.MarkSuccess(txn.ID, providerTxnID, nilIfEmpty(payer), raw)
	if err != nil {
		return nil, errors.NewInternalError("failed to mark transaction successful", err)
	}

	if !changed {
		current, err := s.repo.GetByID(txn.ID)
		if err != nil {
			return nil, err
		}
		if current.IsSuccessful() {
			// concurrent reconcile won the race; nothing to do
			return current, nil
		}
		s.logger.Warn("provider reports success but transaction is terminal locally",
			"transaction_id", txn.ID,
			"local_status", current.Status)
		return current, nil
	}

	orderPaid, err := s.orders.MarkPaid(txn.OrderID)
	if err != nil {
		// transaction is already success; surface the order update
		// failure so an operator can intervene
		return nil, errors.NewInternalError("transaction successful but order update failed", err)
	}
	if !orderPaid {
		s.logger.Warn("order already out of pending when payment succeeded",
			"order_id", txn.OrderID,
			"transaction_id", txn.ID)
	}

	s.eventBus.Publish(ctx, events.NewPaymentSucceededEvent(
		txn.ID, txn.OrderID, txn.ExternalOrderID, providerTxnID, txn.AmountCentimes, oldStatus))

	s.logger.Info("payment reconciled as successful",
		"transaction_id", txn.ID,
		"order_id", txn.OrderID,
		"provider_transaction_id", providerTxnID)

	return s.repo.GetByID(txn.ID)
}

func (s *Service) applyFailure(ctx context.Context, txn *transaction.PaymentTransaction, providerTxnID, reason, oldStatus string, raw json.RawMessage) (*transaction.PaymentTransaction, error) {
	changed, err := s.repo.MarkFailed(txn.ID, nilIfEmpty(providerTxnID), reason, raw)
	if err != nil {
		return nil, errors.NewInternalError("failed to mark transaction failed", err)
	}

	if changed {
		// the order stays pending so the customer may retry with a new
		// transaction
		s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
			txn.ID, txn.OrderID, txn.ExternalOrderID, providerTxnID, txn.AmountCentimes, oldStatus, reason))

		s.logger.Info("payment reconciled as failed",
			"transaction_id", txn.ID,
			"order_id", txn.OrderID,
			"reason", reason)
	}

	return s.repo.GetByID(txn.ID)
}

func (s *Service) GetTransaction(id int64) (*transaction.PaymentTransaction, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListTransactionsForOrder(orderID int64) ([]*transaction.PaymentTransaction, error) {
	return s.repo.ListByOrderID(orderID)
}

// PollUnresolved re-checks transactions the provider has not settled yet.
// Intended to be run from cron via the poll command, not as a resident
// scheduler. Returns how many transactions reached a terminal status.
func (s *Service) PollUnresolved(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	unresolved, err := s.repo.ListUnresolved(cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unresolved transactions: %w", err)
	}

	settled := 0
	for _, txn := range unresolved {
		ref := CallbackRef{ExternalOrderID: txn.ExternalOrderID}
		if txn.ProviderTransactionID != nil {
			ref.ProviderTransactionID = *txn.ProviderTransactionID
		}

		result, err := s.Reconcile(ctx, ref)
		if err != nil {
			s.logger.Warn("poll: reconcile failed, will retry next run",
				"error", err,
				"transaction_id", txn.ID)
			continue
		}
		if !result.Unresolved() {
			settled++
		}
	}

	s.logger.Info("poll pass complete",
		"checked", len(unresolved),
		"settled", settled)

	return settled, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
