package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	errors "github.com/afepanou/payments/internal"
	"github.com/afepanou/payments/internal/transport"
)

type ServiceAPI interface {
	MonthlyStats(month time.Time) (*MonthlyStats, error)
	MonthlyReport(month time.Time) (*Report, error)
}

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

// parseMonth accepts ?month=YYYY-MM, defaulting to the current month.
func parseMonth(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01", raw)
}

// MonthlyStats handles GET /api/v1/dashboard/stats
func (h *Handler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("month must be formatted YYYY-MM", errors.ErrCodeValidationFailed))
		return
	}

	stats, err := h.service.MonthlyStats(month)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

// MonthlyReport handles GET /api/v1/dashboard/report
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("month must be formatted YYYY-MM", errors.ErrCodeValidationFailed))
		return
	}

	report, err := h.service.MonthlyReport(month)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}
