package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-dashboard/internal/models"
	"coffee-dashboard/internal/services"
)

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	a.SetData([]models.Transaction{
		{
			ID:              "T001",
			Date:            time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			TimeOfDay:       "09:00:00",
			StoreLocation:   "A",
			ProductCategory: "Coffee",
			Quantity:        2,
			UnitPrice:       decimal.RequireFromString("3.00"),
		},
		{
			ID:              "T002",
			Date:            time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
			TimeOfDay:       "14:30:00",
			StoreLocation:   "B",
			ProductCategory: "Tea",
			Quantity:        1,
			UnitPrice:       decimal.RequireFromString("2.50"),
		},
		{
			ID:              "T003",
			Date:            time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			TimeOfDay:       "bad-value",
			StoreLocation:   "A",
			ProductCategory: "Coffee",
			Quantity:        4,
			UnitPrice:       decimal.RequireFromString("1.25"),
		},
	})
	return a
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type envelope struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type dashboardJSON struct {
	Empty         bool                     `json:"empty"`
	Records       int                      `json:"records"`
	TotalQuantity int                      `json:"total_quantity"`
	AverageTicket *string                  `json:"average_ticket"`
	Categories    models.CategoryBreakdown `json:"categories"`
	Hours         models.HourlyBreakdown   `json:"hours"`
	Warnings      int                      `json:"time_format_warnings"`
}

func getDashboard(t *testing.T, h *APIHandlers, query url.Values) dashboardJSON {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+query.Encode(), nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var d dashboardJSON
	env := decodeEnvelope(t, w, &d)
	require.True(t, env.Success)
	return d
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger())

	require.NotNil(t, handlers)
	assert.Same(t, analytics, handlers.analytics)
}

func TestAPIHandlers_HandleDashboard_AllData(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	d := getDashboard(t, h, url.Values{})

	assert.False(t, d.Empty)
	assert.Equal(t, 3, d.Records)
	assert.Equal(t, 7, d.TotalQuantity)
	require.NotNil(t, d.AverageTicket)
	// (6 + 2.5 + 5) / 3 = 4.5
	assert.Equal(t, "4.5", *d.AverageTicket)
	assert.Equal(t, models.CategoryBreakdown{{Category: "Coffee", Quantity: 6}, {Category: "Tea", Quantity: 1}}, d.Categories)
	assert.Equal(t, models.HourlyBreakdown{{Hour: 9, Quantity: 2}, {Hour: 14, Quantity: 1}}, d.Hours)
	assert.Equal(t, 1, d.Warnings)
}

func TestAPIHandlers_HandleDashboard_Filters(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name     string
		query    url.Values
		records  int
		quantity int
	}{
		{"month", url.Values{"month": {"2024-1"}}, 2, 3},
		{"two months", url.Values{"month": {"2024-1", "2024-2"}}, 3, 7},
		{"store", url.Values{"store": {"B"}}, 1, 1},
		{"category", url.Values{"category": {"Coffee"}}, 2, 6},
		{"combined", url.Values{"month": {"2024-2"}, "store": {"A"}, "category": {"Coffee"}}, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := getDashboard(t, h, tt.query)
			assert.False(t, d.Empty)
			assert.Equal(t, tt.records, d.Records)
			assert.Equal(t, tt.quantity, d.TotalQuantity)
		})
	}
}

func TestAPIHandlers_HandleDashboard_EmptyState(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	queries := []url.Values{
		{"category": {""}},
		{"store": {"Nowhere"}},
		{"month": {""}},
	}

	for _, q := range queries {
		t.Run(q.Encode(), func(t *testing.T) {
			d := getDashboard(t, h, q)
			assert.True(t, d.Empty)
			assert.Nil(t, d.AverageTicket)
			assert.Zero(t, d.TotalQuantity)
			assert.Empty(t, d.Categories)
			assert.Empty(t, d.Hours)
		})
	}
}

func TestAPIHandlers_HandleTransactions(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?store=A&limit=1", nil)
	w := httptest.NewRecorder()
	h.HandleTransactions(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count        int `json:"count"`
		Transactions []struct {
			ID string `json:"transaction_id"`
		} `json:"transactions"`
	}
	env := decodeEnvelope(t, w, &body)
	require.True(t, env.Success)

	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, "T001", body.Transactions[0].ID)
}

func TestAPIHandlers_HandleTransactions_BadLimit(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	for _, limit := range []string{"abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/transactions?limit="+limit, nil)
		w := httptest.NewRecorder()
		h.HandleTransactions(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	}
}

func TestAPIHandlers_HandleOptions(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	w := httptest.NewRecorder()
	h.HandleOptions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	var opts models.FilterOptions
	decodeEnvelope(t, w, &opts)
	assert.Equal(t, []models.MonthKey{"2024-1", "2024-2"}, opts.Months)
	assert.Equal(t, []string{"A", "B"}, opts.Stores)
	assert.Equal(t, []string{"Coffee", "Tea"}, opts.Categories)
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"), "health endpoint should not be cached")

	var data map[string]string
	env := decodeEnvelope(t, w, &data)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", data["status"])

	_, err := time.Parse(time.RFC3339, data["timestamp"])
	assert.NoError(t, err)
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]any
	env := decodeEnvelope(t, w, &data)
	assert.True(t, env.Success)
	assert.EqualValues(t, 3, data["record_count"])
	assert.EqualValues(t, 2, data["categories"])
}

func TestAPIHandlers_NoDataLoaded(t *testing.T) {
	h := NewAPIHandlers(services.NewAnalytics(), testLogger())

	for _, tc := range []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/api/dashboard", h.HandleDashboard},
		{"/api/transactions", h.HandleTransactions},
	} {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.handler(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			env := decodeEnvelope(t, w, nil)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)
		})
	}
}

func TestSpecFromQuery(t *testing.T) {
	known := []string{"Coffee", "Tea"}

	spec := specFromQuery(url.Values{}, known)
	assert.True(t, spec.Months().IsAll())
	assert.True(t, spec.Stores().IsAll())
	assert.Equal(t, known, spec.Categories().Values())

	spec = specFromQuery(url.Values{"month": {"2024-1", " "}, "category": {""}}, known)
	assert.Equal(t, []string{"2024-1"}, spec.Months().Values())
	assert.Zero(t, spec.Categories().Len())
}
