package postgres

import (
	"github.com/afepanou/payments/internal/core/datamodel/transaction"
	paymentpkg "github.com/afepanou/payments/internal/payment"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) paymentpkg.HistoryRepositoryAPI {
	return &HistoryRepository{
		db: db,
	}
}

func (r *HistoryRepository) Record(h *transaction.StatusHistory) error {
	return r.db.Create(h).Error
}

func (r *HistoryRepository) ListByTransactionID(transactionID int64) ([]*transaction.StatusHistory, error) {
	var history []*transaction.StatusHistory
	err := r.db.Where("transaction_id = ?", transactionID).
		Order("changed_at DESC").Find(&history).Error
	return history, err
}
