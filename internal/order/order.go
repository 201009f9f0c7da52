package order

import (
	"github.com/afepanou/payments/internal/core/datamodel/order"
)

// RepositoryAPI is the storage contract for orders. MarkPaid and Cancel are
// guarded updates: they only apply when the order is still pending and
// report whether a row actually changed.
type RepositoryAPI interface {
	Create(o *order.Order) error
	GetByID(id int64) (*order.Order, error)
	GetByOrderNumber(orderNumber string) (*order.Order, error)
	MarkPaid(id int64) (bool, error)
	Cancel(id int64) (bool, error)
	List(offset, limit int) ([]*order.Order, error)
}

// ServiceAPI is what other packages (payment reconciliation, HTTP handlers)
// consume.
type ServiceAPI interface {
	CreateOrder(req *CreateOrderRequest) (*order.Order, error)
	GetOrder(id int64) (*order.Order, error)
	MarkPaid(id int64) (bool, error)
	CancelOrder(id int64) error
	ListOrders(offset, limit int) ([]*order.Order, error)
}
