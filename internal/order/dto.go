package order

import (
	"time"

	"github.com/afepanou/payments/internal/core/common/validation"
	"github.com/afepanou/payments/internal/core/datamodel/order"
)

type CreateOrderRequest struct {
	AmountCentimes int64  `json:"amount_centimes"`
	Currency       string `json:"currency"`
	CustomerEmail  string `json:"customer_email"`
	Notes          string `json:"notes,omitempty"`
}

func (r *CreateOrderRequest) Validate() error {
	if r.Currency == "" {
		r.Currency = "HTG"
	}

	if appErr := validation.ValidateOrderAmount(r.AmountCentimes); appErr != nil {
		return appErr
	}
	if appErr := validation.ValidateCurrency(r.Currency); appErr != nil {
		return appErr
	}

	validator := validation.NewValidator()
	validator.Field("customer_email", r.CustomerEmail).MaxLength(254)
	validator.Field("notes", r.Notes).MaxLength(1000)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type View struct {
	ID             int64     `json:"id"`
	OrderNumber    string    `json:"order_number"`
	AmountCentimes int64     `json:"amount_centimes"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func ToView(o *order.Order) *View {
	return &View{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		AmountCentimes: o.AmountCentimes,
		Currency:       o.Currency,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
