package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	moncashtypes "github.com/afepanou/payments/internal/core/datamodel/moncash"
	ordermodel "github.com/afepanou/payments/internal/core/datamodel/order"
	"github.com/afepanou/payments/internal/core/datamodel/transaction"
)

// ProviderAPI is the slice of the MonCash client the reconciliation flow
// consumes. The client performs no retries; retry policy lives here.
type ProviderAPI interface {
	CreatePayment(ctx context.Context, orderID string, amountCentimes int64) (*moncashtypes.PaymentToken, error)
	RetrieveByTransactionID(ctx context.Context, transactionID string) (*moncashtypes.PaymentDetails, error)
	RetrieveByOrderID(ctx context.Context, orderID string) (*moncashtypes.PaymentDetails, error)
	GatewayURL(paymentToken string) string
}

// OrderAPI is the slice of the order service the reconciliation flow needs.
type OrderAPI interface {
	GetOrder(id int64) (*ordermodel.Order, error)
	MarkPaid(id int64) (bool, error)
}

// RepositoryAPI is the storage contract for payment transactions. The Mark*
// methods are guarded updates that report whether the row transitioned, so
// concurrent reconciliations across processes cannot double-apply.
type RepositoryAPI interface {
	Create(t *transaction.PaymentTransaction) error
	GetByID(id int64) (*transaction.PaymentTransaction, error)
	GetByProviderTransactionID(providerTxnID string) (*transaction.PaymentTransaction, error)
	GetByExternalOrderID(externalOrderID string) (*transaction.PaymentTransaction, error)
	ListByOrderID(orderID int64) ([]*transaction.PaymentTransaction, error)
	MarkPending(id int64, providerTxnID *string, raw json.RawMessage) (bool, error)
	MarkSuccess(id int64, providerTxnID string, payerPhone *string, raw json.RawMessage) (bool, error)
	MarkFailed(id int64, providerTxnID *string, reason string, raw json.RawMessage) (bool, error)
	ListUnresolved(olderThan time.Time, limit int) ([]*transaction.PaymentTransaction, error)
}

// HistoryRepositoryAPI records the append-only status audit trail.
type HistoryRepositoryAPI interface {
	Record(h *transaction.StatusHistory) error
	ListByTransactionID(transactionID int64) ([]*transaction.StatusHistory, error)
}

// ServiceAPI is consumed by the HTTP handlers and the poll command.
type ServiceAPI interface {
	Initiate(ctx context.Context, orderID int64) (*InitiateResult, error)
	Reconcile(ctx context.Context, ref CallbackRef) (*transaction.PaymentTransaction, error)
	GetTransaction(id int64) (*transaction.PaymentTransaction, error)
	ListTransactionsForOrder(orderID int64) ([]*transaction.PaymentTransaction, error)
	PollUnresolved(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// Provider settlement outcomes as reported in PaymentDetails.Message.
const (
	providerMessageSuccessful = "successful"
	providerMessageFailed     = "failed"
)

// MapProviderMessage translates the provider's message field into a local
// transaction status. Anything that is neither successful nor failed is
// still in flight.
func MapProviderMessage(message string) string {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case providerMessageSuccessful:
		return transaction.StatusSuccess
	case providerMessageFailed:
		return transaction.StatusFailed
	default:
		return transaction.StatusPending
	}
}
