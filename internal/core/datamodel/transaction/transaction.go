package transaction

import (
	"encoding/json"
	"time"
)

// Transaction statuses. initiated may move to pending, success or failed;
// success and failed are terminal and success is immutable.
const (
	StatusInitiated = "initiated"
	StatusPending   = "pending"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
)

// PaymentTransaction is one attempt to collect payment for an order via
// MonCash. An order accumulates a row per attempt; at most one of them may
// be success.
type PaymentTransaction struct {
	ID                    int64           `gorm:"primaryKey"`
	OrderID               int64           `gorm:"column:order_id;not null;index"`
	ExternalOrderID       string          `gorm:"column:external_order_id;not null;uniqueIndex"`
	ProviderTransactionID *string         `gorm:"column:provider_transaction_id;index"`
	AmountCentimes        int64           `gorm:"column:amount_centimes;not null"`
	Currency              string          `gorm:"column:currency;default:HTG"`
	Status                string          `gorm:"column:status;default:initiated;index"`
	PaymentToken          string          `gorm:"column:payment_token"`
	PayerPhone            *string         `gorm:"column:payer_phone"`
	ProviderResponse      json.RawMessage `gorm:"column:provider_response;type:jsonb"`
	FailureReason         *string         `gorm:"column:failure_reason"`
	CompletedAt           *time.Time      `gorm:"column:completed_at"`
	CreatedAt             time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;default:now()"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// Unresolved reports whether the provider may still settle this attempt.
func (t *PaymentTransaction) Unresolved() bool {
	return t.Status == StatusInitiated || t.Status == StatusPending
}

func (t *PaymentTransaction) IsSuccessful() bool {
	return t.Status == StatusSuccess
}

// StatusHistory is the append-only audit trail of status transitions,
// written by the event subscriber on every transition.
type StatusHistory struct {
	ID            int64     `gorm:"primaryKey"`
	TransactionID int64     `gorm:"column:transaction_id;not null;index"`
	OldStatus     string    `gorm:"column:old_status;not null"`
	NewStatus     string    `gorm:"column:new_status;not null"`
	Reason        string    `gorm:"column:reason"`
	ChangedAt     time.Time `gorm:"column:changed_at;default:now()"`
}

func (StatusHistory) TableName() string {
	return "payment_status_history"
}
