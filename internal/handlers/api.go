package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"coffee-dashboard/internal/errors"
	"coffee-dashboard/internal/models"
	"coffee-dashboard/internal/observability"
	"coffee-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// requireData answers 503 while no dataset is installed.
func (h *APIHandlers) requireData(w http.ResponseWriter, r *http.Request) bool {
	if h.analytics.Loaded() {
		return true
	}
	errors.WriteError(w, h.logger, errors.ServiceUnavailable("sales data not loaded"), observability.GetRequestID(r.Context()))
	return false
}

type transactionsResponse struct {
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	headers := map[string]string{
		"Cache-Control": cacheControl,
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Options(), headers)
}

// HandleTransactions returns the filtered records. An optional limit caps
// how many are listed; count is always the full match count.
func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	requestID := observability.GetRequestID(r.Context())

	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errors.WriteError(w, h.logger, errors.BadRequest("limit must be a non-negative integer"), requestID)
			return
		}
		limit = n
	}

	spec := specFromQuery(r.URL.Query(), h.analytics.Options().Categories)
	filtered := h.analytics.Filtered(r.Context(), spec)

	listed := filtered
	if limit >= 0 && len(listed) > limit {
		listed = listed[:limit]
	}

	errors.WriteSuccess(w, transactionsResponse{
		Count:        len(filtered),
		Transactions: listed,
	})
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	spec := specFromQuery(r.URL.Query(), h.analytics.Options().Categories)

	dashboard, err := h.analytics.Query(r.Context(), spec)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "dashboard query failed"), observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, dashboard)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
