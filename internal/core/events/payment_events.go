package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentInitiated = "payment.initiated"
	EventTypePaymentSucceeded = "payment.succeeded"
	EventTypePaymentFailed    = "payment.failed"
)

// PaymentTransitionEvent records a reconciliation outcome. OldStatus and
// NewStatus feed the status-history audit trail.
type PaymentTransitionEvent struct {
	BaseEvent
	TransactionID         int64  `json:"transaction_id"`
	OrderID               int64  `json:"order_id"`
	ExternalOrderID       string `json:"external_order_id"`
	ProviderTransactionID string `json:"provider_transaction_id"`
	AmountCentimes        int64  `json:"amount_centimes"`
	OldStatus             string `json:"old_status"`
	NewStatus             string `json:"new_status"`
	Reason                string `json:"reason,omitempty"`
}

func newPaymentTransitionEvent(eventType string, transactionID, orderID int64, externalOrderID, providerTxnID string, amount int64, oldStatus, newStatus, reason string) *PaymentTransitionEvent {
	return &PaymentTransitionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"transaction_id":          transactionID,
				"order_id":                orderID,
				"external_order_id":       externalOrderID,
				"provider_transaction_id": providerTxnID,
				"amount_centimes":         amount,
				"old_status":              oldStatus,
				"new_status":              newStatus,
				"reason":                  reason,
			},
		},
		TransactionID:         transactionID,
		OrderID:               orderID,
		ExternalOrderID:       externalOrderID,
		ProviderTransactionID: providerTxnID,
		AmountCentimes:        amount,
		OldStatus:             oldStatus,
		NewStatus:             newStatus,
		Reason:                reason,
	}
}

func NewPaymentInitiatedEvent(transactionID, orderID int64, externalOrderID string, amount int64) *PaymentTransitionEvent {
	return newPaymentTransitionEvent(EventTypePaymentInitiated, transactionID, orderID, externalOrderID, "", amount, "", "initiated", "payment initiated")
}

func NewPaymentSucceededEvent(transactionID, orderID int64, externalOrderID, providerTxnID string, amount int64, oldStatus string) *PaymentTransitionEvent {
	return newPaymentTransitionEvent(EventTypePaymentSucceeded, transactionID, orderID, externalOrderID, providerTxnID, amount, oldStatus, "success", "provider confirmed payment")
}

func NewPaymentFailedEvent(transactionID, orderID int64, externalOrderID, providerTxnID string, amount int64, oldStatus, reason string) *PaymentTransitionEvent {
	return newPaymentTransitionEvent(EventTypePaymentFailed, transactionID, orderID, externalOrderID, providerTxnID, amount, oldStatus, "failed", reason)
}
