package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "coffee-dashboard/internal/errors"
	"coffee-dashboard/internal/models"
	"coffee-dashboard/internal/observability"
)

// Dashboard is the rendering-ready result of one filter change.
// Empty is set when no transaction matched; AverageTicket is then null.
type Dashboard struct {
	Empty         bool                     `json:"empty"`
	Records       int                      `json:"records"`
	TotalQuantity int                      `json:"total_quantity"`
	AverageTicket decimal.NullDecimal      `json:"average_ticket"`
	Categories    models.CategoryBreakdown `json:"categories"`
	Hours         models.HourlyBreakdown   `json:"hours"`
	Warnings      int                      `json:"time_format_warnings"`
}

// Analytics holds the base dataset. The dataset is replaced as a whole by
// SetData or LoadFromCSV and never modified in place, so every query works
// on an immutable snapshot.
type Analytics struct {
	mu       sync.RWMutex
	dataset  []models.Transaction
	options  models.FilterOptions
	report   LoadReport
	loadedAt time.Time
	csvPath  string
	logger   *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		dataset: []models.Transaction{},
		options: models.FilterOptions{
			Months:     []models.MonthKey{},
			Stores:     []string{},
			Categories: []string{},
		},
		logger: slog.Default(),
	}
}

// SetData installs data as the base dataset, sorted by date.
func (a *Analytics) SetData(data []models.Transaction) {
	dataset := slices.Clone(data)
	slices.SortStableFunc(dataset, func(a, b models.Transaction) int {
		return a.Date.Compare(b.Date)
	})
	a.install(dataset, LoadReport{Rows: len(data), Accepted: len(data)})
}

func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	a.logger.Info("processing CSV file", "filename", filename)

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	dataset, report, err := LoadTransactions(ctx, file)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}

	a.install(dataset, report)
	a.mu.Lock()
	a.csvPath = filename
	a.mu.Unlock()

	duration := time.Since(start)
	a.logger.Info("csv processing complete",
		"rows", report.Rows,
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(report.Rows)/duration.Seconds()))

	if report.Rejected > 0 {
		a.logger.Warn("rejected invalid rows", "count", report.Rejected)
	}
	return nil
}

func (a *Analytics) install(dataset []models.Transaction, report LoadReport) {
	options := collectOptions(dataset)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.dataset = dataset
	a.options = options
	a.report = report
	a.loadedAt = time.Now()
}

// Loaded reports whether a dataset has been installed.
func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.loadedAt.IsZero()
}

func (a *Analytics) snapshot() []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Options lists the values a user can pick from: months in calendar order,
// stores and categories alphabetically.
func (a *Analytics) Options() models.FilterOptions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.options
}

// DefaultSpec selects every month, every store and every known category.
func (a *Analytics) DefaultSpec() models.FilterSpec {
	return models.DefaultFilterSpec(a.Options().Categories)
}

func (a *Analytics) Filtered(ctx context.Context, spec models.FilterSpec) []models.Transaction {
	_, span := observability.StartSpan(ctx, "analytics.filter")
	defer span.Finish()

	filtered := Filter(a.snapshot(), spec)
	span.SetTag("records", strconv.Itoa(len(filtered)))
	return filtered
}

// Query runs the filter and aggregation pipeline for spec.
func (a *Analytics) Query(ctx context.Context, spec models.FilterSpec) (Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.query")
	defer span.Finish()

	filtered := a.Filtered(ctx, spec)
	agg, err := Aggregate(filtered)

	for _, w := range agg.Warnings {
		a.logger.Warn("transaction left out of hourly breakdown",
			"error", w,
			"request_id", observability.GetRequestID(ctx),
		)
	}

	dashboard := Dashboard{
		Records:       agg.Metrics.Records,
		TotalQuantity: agg.Metrics.TotalQuantity,
		Categories:    agg.Categories,
		Hours:         agg.Hours,
		Warnings:      len(agg.Warnings),
	}

	switch {
	case errors.Is(err, apperrors.ErrDivisionByZero):
		dashboard.Empty = true
		span.SetTag("empty", "true")
	case err != nil:
		span.SetError(err)
		return Dashboard{}, err
	default:
		dashboard.AverageTicket = decimal.NewNullDecimal(agg.Metrics.AverageTicket)
	}

	span.SetTag("records", strconv.Itoa(dashboard.Records))
	return dashboard, nil
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":  len(a.dataset),
		"rows_read":     a.report.Rows,
		"rows_rejected": a.report.Rejected,
		"last_loaded":   a.loadedAt,
		"source":        a.csvPath,
		"months":        len(a.options.Months),
		"stores":        len(a.options.Stores),
		"categories":    len(a.options.Categories),
	}
}

func collectOptions(dataset []models.Transaction) models.FilterOptions {
	months := make([]models.MonthKey, 0)
	seenMonths := make(map[models.MonthKey]bool)
	stores := make(map[string]bool)
	categories := make(map[string]bool)

	for _, tx := range dataset {
		if m := tx.Month(); !seenMonths[m] {
			seenMonths[m] = true
			months = append(months, m)
		}
		stores[tx.StoreLocation] = true
		categories[tx.ProductCategory] = true
	}

	return models.FilterOptions{
		Months:     months,
		Stores:     sortedKeys(stores),
		Categories: sortedKeys(categories),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
