package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afepanou/payments/internal/core/datamodel/transaction"
	"github.com/afepanou/payments/internal/core/events"
)

// HistoryRecorder subscribes to payment transition events and appends
// status-history rows, keeping the audit trail out of the hot path.
type HistoryRecorder struct {
	history HistoryRepositoryAPI
	logger  *slog.Logger
}

func NewHistoryRecorder(history HistoryRepositoryAPI, logger *slog.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		history: history,
		logger:  logger,
	}
}

func (h *HistoryRecorder) HandlePaymentTransition(ctx context.Context, event events.Event) error {
	transitionEvent, ok := event.(*events.PaymentTransitionEvent)
	if !ok {
		return fmt.Errorf("expected PaymentTransitionEvent, got %T", event)
	}

	record := &transaction.StatusHistory{
		TransactionID: transitionEvent.TransactionID,
		OldStatus:     transitionEvent.OldStatus,
		NewStatus:     transitionEvent.NewStatus,
		Reason:        transitionEvent.Reason,
		ChangedAt:     transitionEvent.OccurredAt(),
	}

	if err := h.history.Record(record); err != nil {
		h.logger.Error("failed to record status history",
			"error", err,
			"transaction_id", transitionEvent.TransactionID,
			"new_status", transitionEvent.NewStatus)
		return fmt.Errorf("failed to record status history: %w", err)
	}

	h.logger.Debug("status history recorded",
		"transaction_id", transitionEvent.TransactionID,
		"old_status", transitionEvent.OldStatus,
		"new_status", transitionEvent.NewStatus)

	return nil
}

func (h *HistoryRecorder) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentInitiated, h.HandlePaymentTransition)
	eventBus.Subscribe(events.EventTypePaymentSucceeded, h.HandlePaymentTransition)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentTransition)

	h.logger.Info("payment history handlers registered",
		"handlers", []string{
			events.EventTypePaymentInitiated,
			events.EventTypePaymentSucceeded,
			events.EventTypePaymentFailed,
		})
}
