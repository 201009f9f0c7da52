package postgres

import (
	"time"

	"github.com/afepanou/payments/internal/core/datamodel/transaction"
	dashboardpkg "github.com/afepanou/payments/internal/dashboard"
	"gorm.io/gorm"
)

type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) dashboardpkg.RepositoryAPI {
	return &DashboardRepository{
		db: db,
	}
}

// StatsForRange aggregates transactions created in [start, end). Initiated
// rows count as pending: the provider has not settled them either way.
func (r *DashboardRepository) StatsForRange(start, end time.Time) (*dashboardpkg.MonthlyStats, error) {
	var row struct {
		SuccessCount        int64
		PendingCount        int64
		FailedCount         int64
		TotalAmountCentimes int64
	}

	err := r.db.Model(&transaction.PaymentTransaction{}).
		Select(
			"COUNT(*) FILTER (WHERE status = ?) AS success_count, "+
				"COUNT(*) FILTER (WHERE status IN ?) AS pending_count, "+
				"COUNT(*) FILTER (WHERE status = ?) AS failed_count, "+
				"COALESCE(SUM(amount_centimes) FILTER (WHERE status = ?), 0) AS total_amount_centimes",
			transaction.StatusSuccess,
			[]string{transaction.StatusInitiated, transaction.StatusPending},
			transaction.StatusFailed,
			transaction.StatusSuccess,
		).
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &dashboardpkg.MonthlyStats{
		SuccessCount:        row.SuccessCount,
		PendingCount:        row.PendingCount,
		FailedCount:         row.FailedCount,
		TotalAmountCentimes: row.TotalAmountCentimes,
	}, nil
}
