package postgres

import (
	"time"

	errors "github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/core/datamodel/order"
	orderpkg "github.com/afepanou/payments/internal/order"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) orderpkg.RepositoryAPI {
	return &OrderRepository{
		db: db,
	}
}

func (r *OrderRepository) Create(o *order.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id int64) (*order.Order, error) {
	var o order.Order
	err := r.db.First(&o, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByOrderNumber(orderNumber string) (*order.Order, error) {
	var o order.Order
	err := r.db.Where("order_number = ?", orderNumber).First(&o).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// MarkPaid only succeeds while the order is still pending. The WHERE guard
// makes concurrent reconciliations safe across server processes.
func (r *OrderRepository) MarkPaid(id int64) (bool, error) {
	res := r.db.Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusPending).
		Updates(map[string]interface{}{
			"status":     order.StatusPaid,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderRepository) Cancel(id int64) (bool, error) {
	res := r.db.Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusPending).
		Updates(map[string]interface{}{
			"status":     order.StatusCancelled,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderRepository) List(offset, limit int) ([]*order.Order, error) {
	var orders []*order.Order
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}
