package order

import (
	"time"
)

// Order statuses. Orders are never deleted; payment outcome is the only
// thing that moves them out of pending.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID             int64     `gorm:"primaryKey"`
	OrderNumber    string    `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerEmail  string    `gorm:"column:customer_email"`
	AmountCentimes int64     `gorm:"column:amount_centimes;not null"`
	Currency       string    `gorm:"column:currency;default:HTG"`
	Status         string    `gorm:"column:status;default:pending"`
	Notes          string    `gorm:"column:notes"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()"`
}

func (Order) TableName() string {
	return "orders"
}

// Payable reports whether a payment attempt may be initiated.
func (o *Order) Payable() bool {
	return o.Status == StatusPending
}
