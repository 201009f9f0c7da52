package postgres

import (
	"encoding/json"
	"time"

	errors "github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/core/datamodel/transaction"
	paymentpkg "github.com/afepanou/payments/internal/payment"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &TransactionRepository{
		db: db,
	}
}

func (r *TransactionRepository) Create(t *transaction.PaymentTransaction) error {
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByID(id int64) (*transaction.PaymentTransaction, error) {
	var t transaction.PaymentTransaction
	err := r.db.First(&t, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByProviderTransactionID(providerTxnID string) (*transaction.PaymentTransaction, error) {
	var t transaction.PaymentTransaction
	err := r.db.Where("provider_transaction_id = ?", providerTxnID).
		Order("created_at DESC").First(&t).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) GetByExternalOrderID(externalOrderID string) (*transaction.PaymentTransaction, error) {
	var t transaction.PaymentTransaction
	err := r.db.Where("external_order_id = ?", externalOrderID).First(&t).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) ListByOrderID(orderID int64) ([]*transaction.PaymentTransaction, error) {
	var txns []*transaction.PaymentTransaction
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&txns).Error
	return txns, err
}

// MarkPending records that the provider acknowledged the attempt but has
// not settled it. Only an initiated row transitions; terminal rows and rows
// already pending are untouched.
func (r *TransactionRepository) MarkPending(id int64, providerTxnID *string, raw json.RawMessage) (bool, error) {
	updates := map[string]interface{}{
		"status":     transaction.StatusPending,
		"updated_at": time.Now(),
	}
	if providerTxnID != nil {
		updates["provider_transaction_id"] = *providerTxnID
	}
	if raw != nil {
		updates["provider_response"] = raw
	}

	res := r.db.Model(&transaction.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, transaction.StatusInitiated).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkSuccess is the only path into the success status. The WHERE guard
// restricts it to unresolved rows, so a concurrent duplicate callback
// applies exactly once and a successful row is immutable afterwards.
func (r *TransactionRepository) MarkSuccess(id int64, providerTxnID string, payerPhone *string, raw json.RawMessage) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":                  transaction.StatusSuccess,
		"provider_transaction_id": providerTxnID,
		"completed_at":            now,
		"updated_at":              now,
	}
	if payerPhone != nil {
		updates["payer_phone"] = *payerPhone
	}
	if raw != nil {
		updates["provider_response"] = raw
	}

	res := r.db.Model(&transaction.PaymentTransaction{}).
		Where("id = ? AND status IN ?", id, []string{transaction.StatusInitiated, transaction.StatusPending}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TransactionRepository) MarkFailed(id int64, providerTxnID *string, reason string, raw json.RawMessage) (bool, error) {
	updates := map[string]interface{}{
		"status":         transaction.StatusFailed,
		"failure_reason": reason,
		"updated_at":     time.Now(),
	}
	if providerTxnID != nil {
		updates["provider_transaction_id"] = *providerTxnID
	}
	if raw != nil {
		updates["provider_response"] = raw
	}

	res := r.db.Model(&transaction.PaymentTransaction{}).
		Where("id = ? AND status IN ?", id, []string{transaction.StatusInitiated, transaction.StatusPending}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *TransactionRepository) ListUnresolved(olderThan time.Time, limit int) ([]*transaction.PaymentTransaction, error) {
	var txns []*transaction.PaymentTransaction
	err := r.db.
		Where("status IN ? AND created_at < ?", []string{transaction.StatusInitiated, transaction.StatusPending}, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
