package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	service ServiceAPI
	logger  *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		service:     service,
		logger:      logger,
	}
}

// InitiatePayment handles POST /api/v1/payments
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("InitiatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.service.Initiate(r.Context(), req.OrderID)
	if err != nil {
		h.logger.Error("InitiatePayment: service error", "error", err, "order_id", req.OrderID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

// PaymentStatus handles POST /api/v1/payments/status. It reconciles
// against the provider before answering, so the response reflects the
// authoritative state.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("PaymentStatus: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	txn, err := h.service.Reconcile(r.Context(), CallbackRef{
		ProviderTransactionID: req.TransactionID,
		ExternalOrderID:       req.OrderID,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(txn))
}

// GetTransaction handles GET /api/v1/payments/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid transaction id", errors.ErrCodeValidationFailed))
		return
	}

	txn, err := h.service.GetTransaction(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(txn))
}

// ListOrderTransactions handles GET /api/v1/orders/{id}/payments
func (h *Handler) ListOrderTransactions(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid order id", errors.ErrCodeValidationFailed))
		return
	}

	txns, err := h.service.ListTransactionsForOrder(orderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	views := make([]*TransactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, ToView(t))
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"order_id":     orderID,
		"transactions": views,
	})
}
