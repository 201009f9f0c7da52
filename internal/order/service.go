package order

import (
	"fmt"
	"log/slog"
	"strings"

	errors "github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/core/datamodel/order"
	"github.com/google/uuid"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// generateOrderNumber produces a human-quotable order reference.
func generateOrderNumber() string {
	return fmt.Sprintf("AFP-%s", strings.ToUpper(uuid.New().String()[:8]))
}

func (s *Service) CreateOrder(req *CreateOrderRequest) (*order.Order, error) {
	if err := req.Validate(); err != nil {
		s.logger.Error("order validation failed", "error", err)
		return nil, err
	}

	o := &order.Order{
		OrderNumber:    generateOrderNumber(),
		CustomerEmail:  req.CustomerEmail,
		AmountCentimes: req.AmountCentimes,
		Currency:       req.Currency,
		Status:         order.StatusPending,
		Notes:          req.Notes,
	}

	if err := s.repo.Create(o); err != nil {
		s.logger.Error("failed to create order", "error", err)
		return nil, errors.NewInternalError("failed to create order", err)
	}

	s.logger.Info("order created",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"amount_centimes", o.AmountCentimes,
		"currency", o.Currency)

	return o, nil
}

func (s *Service) GetOrder(id int64) (*order.Order, error) {
	return s.repo.GetByID(id)
}

// MarkPaid transitions a pending order to paid. Returns false when the
// order already left pending, so repeated reconciliations stay idempotent.
func (s *Service) MarkPaid(id int64) (bool, error) {
	changed, err := s.repo.MarkPaid(id)
	if err != nil {
		s.logger.Error("failed to mark order paid", "error", err, "order_id", id)
		return false, err
	}
	if !changed {
		s.logger.Info("order already out of pending, mark paid skipped", "order_id", id)
	}
	return changed, nil
}

func (s *Service) CancelOrder(id int64) error {
	changed, err := s.repo.Cancel(id)
	if err != nil {
		return err
	}
	if !changed {
		return errors.ErrInvalidOrderState
	}
	s.logger.Info("order cancelled", "order_id", id)
	return nil
}

func (s *Service) ListOrders(offset, limit int) ([]*order.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(offset, limit)
}
