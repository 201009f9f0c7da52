package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/transport"
)

// WebhookHandler terminates the provider's redirect and callback flows.
// MonCash notifies twice: the customer's browser is redirected back with
// query parameters, and the server may receive a JSON notification. Both
// carry a status field we do not trust; Reconcile re-queries the provider.
type WebhookHandler struct {
	*transport.BaseHandler
	service ServiceAPI
	logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		logger:      logger,
	}
}

type callbackNotification struct {
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
	// Message is whatever the provider or a spoofer claims happened.
	// Logged for diagnostics, never acted upon.
	Message string `json:"message,omitempty"`
}

type callbackResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Payment *TransactionView `json:"payment,omitempty"`
}

// HandleCallback handles POST /api/v1/payments/callback, the provider's
// server-to-server notification.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var notif callbackNotification
	if err := json.NewDecoder(r.Body).Decode(&notif); err != nil {
		h.logger.Error("invalid payment callback body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	h.logger.Info("received payment callback",
		"provider_transaction_id", notif.TransactionID,
		"external_order_id", notif.OrderID,
		"claimed_message", notif.Message)

	h.reconcileAndAck(w, r, CallbackRef{
		ProviderTransactionID: notif.TransactionID,
		ExternalOrderID:       notif.OrderID,
	})
}

// HandleReturn handles GET /api/v1/payments/return, the browser redirect
// after the customer completes (or abandons) the hosted payment page.
func (h *WebhookHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ref := CallbackRef{
		ProviderTransactionID: query.Get("transactionId"),
		ExternalOrderID:       query.Get("orderId"),
	}

	h.logger.Info("received payment return redirect",
		"provider_transaction_id", ref.ProviderTransactionID,
		"external_order_id", ref.ExternalOrderID)

	h.reconcileAndAck(w, r, ref)
}

// reconcileAndAck runs reconciliation and always acknowledges with 200 for
// identification problems: answering an error would make the provider
// hammer the endpoint with retries for a transaction we will never match.
func (h *WebhookHandler) reconcileAndAck(w http.ResponseWriter, r *http.Request, ref CallbackRef) {
	txn, err := h.service.Reconcile(r.Context(), ref)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeTransactionNotFound {
			h.logger.Warn("callback references unknown transaction, acknowledging anyway",
				"provider_transaction_id", ref.ProviderTransactionID,
				"external_order_id", ref.ExternalOrderID)
			h.WriteJSON(w, http.StatusOK, callbackResponse{
				Status:  "ignored",
				Message: "no matching transaction",
			})
			return
		}

		h.logger.Error("failed to reconcile payment callback",
			"error", err,
			"provider_transaction_id", ref.ProviderTransactionID,
			"external_order_id", ref.ExternalOrderID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, callbackResponse{
		Status:  "ok",
		Message: "callback processed",
		Payment: ToView(txn),
	})
}
