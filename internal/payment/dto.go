package payment

import (
	"time"

	"github.com/afepanou/payments/internal/core/common/validation"
	"github.com/afepanou/payments/internal/core/datamodel/transaction"
)

// InitiatePaymentRequest starts a payment attempt for a local order.
type InitiatePaymentRequest struct {
	OrderID int64 `json:"order_id"`
}

func (r *InitiatePaymentRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("order_id", r.OrderID).Required()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// StatusRequest polls the provider for a transaction, by either id.
type StatusRequest struct {
	TransactionID string `json:"transaction_id,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
}

func (r *StatusRequest) Validate() error {
	if r.TransactionID == "" && r.OrderID == "" {
		validator := validation.NewValidator()
		validator.Field("transaction_id", r.TransactionID).Required()
		if appErr := validator.Validate(); appErr != nil {
			return appErr
		}
	}
	return nil
}

// CallbackRef identifies a transaction from a provider callback or
// redirect. The callback may carry either id; the status field it also
// carries is deliberately ignored.
type CallbackRef struct {
	ProviderTransactionID string
	ExternalOrderID       string
}

func (ref CallbackRef) Empty() bool {
	return ref.ProviderTransactionID == "" && ref.ExternalOrderID == ""
}

// InitiateResult is returned to the checkout frontend.
type InitiateResult struct {
	TransactionID   int64  `json:"transaction_id"`
	ExternalOrderID string `json:"external_order_id"`
	PaymentToken    string `json:"payment_token"`
	PaymentURL      string `json:"payment_url"`
}

type TransactionView struct {
	ID                    int64      `json:"id"`
	OrderID               int64      `json:"order_id"`
	ExternalOrderID       string     `json:"external_order_id"`
	ProviderTransactionID *string    `json:"provider_transaction_id,omitempty"`
	AmountCentimes        int64      `json:"amount_centimes"`
	Currency              string     `json:"currency"`
	Status                string     `json:"status"`
	PayerPhone            *string    `json:"payer_phone,omitempty"`
	FailureReason         *string    `json:"failure_reason,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func ToView(t *transaction.PaymentTransaction) *TransactionView {
	return &TransactionView{
		ID:                    t.ID,
		OrderID:               t.OrderID,
		ExternalOrderID:       t.ExternalOrderID,
		ProviderTransactionID: t.ProviderTransactionID,
		AmountCentimes:        t.AmountCentimes,
		Currency:              t.Currency,
		Status:                t.Status,
		PayerPhone:            t.PayerPhone,
		FailureReason:         t.FailureReason,
		CompletedAt:           t.CompletedAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}
