package services

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "coffee-dashboard/internal/errors"
	"coffee-dashboard/internal/models"
)

var timeOfDayLayouts = []string{"15:04:05", "15:04"}

// Aggregate reduces a filtered dataset to summary metrics and the category
// and hourly breakdowns. The average ticket is revenue per transaction
// line, so an empty input returns ErrDivisionByZero alongside zero totals.
// Records with an unparsable time of day are reported in Warnings and only
// left out of the hourly breakdown.
func Aggregate(filtered []models.Transaction) (models.Aggregation, error) {
	result := models.Aggregation{
		Categories: models.CategoryBreakdown{},
		Hours:      models.HourlyBreakdown{},
	}
	if len(filtered) == 0 {
		return result, apperrors.DivisionByZero("average ticket over zero transactions")
	}

	categoryGroups := make(map[string]int)
	hourGroups := make(map[int]int)
	revenue := decimal.Zero

	for _, tx := range filtered {
		result.Metrics.TotalQuantity += tx.Quantity
		revenue = revenue.Add(tx.Revenue())
		categoryGroups[tx.ProductCategory] += tx.Quantity

		hour, err := HourOf(tx.TimeOfDay)
		if err != nil {
			result.Warnings = append(result.Warnings, apperrors.InvalidTimeFormat(err, tx.ID, tx.TimeOfDay))
			continue
		}
		hourGroups[hour] += tx.Quantity
	}

	result.Metrics.Records = len(filtered)
	result.Metrics.AverageTicket = revenue.Div(decimal.NewFromInt(int64(len(filtered))))
	result.Categories = sortCategoryBreakdown(categoryGroups)
	result.Hours = sortHourlyBreakdown(hourGroups)

	return result, nil
}

// HourOf extracts the hour from an "HH:MM:SS" or "HH:MM" time of day.
func HourOf(timeOfDay string) (int, error) {
	raw := strings.TrimSpace(timeOfDay)
	var lastErr error
	for _, layout := range timeOfDayLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.Hour(), nil
		}
		lastErr = err
	}
	return 0, lastErr
}

func sortCategoryBreakdown(groups map[string]int) models.CategoryBreakdown {
	result := make(models.CategoryBreakdown, 0, len(groups))
	for category, qty := range groups {
		result = append(result, models.CategoryQuantity{Category: category, Quantity: qty})
	}
	slices.SortFunc(result, func(a, b models.CategoryQuantity) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return result
}

func sortHourlyBreakdown(groups map[int]int) models.HourlyBreakdown {
	result := make(models.HourlyBreakdown, 0, len(groups))
	for hour, qty := range groups {
		result = append(result, models.HourQuantity{Hour: hour, Quantity: qty})
	}
	slices.SortFunc(result, func(a, b models.HourQuantity) int {
		return cmp.Compare(a.Hour, b.Hour)
	})
	return result
}
