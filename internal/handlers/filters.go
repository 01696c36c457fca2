package handlers

import (
	"net/url"
	"strings"

	"coffee-dashboard/internal/models"
)

// specFromQuery builds a filter from repeatable month, store and category
// parameters. A missing parameter selects everything; a present one is an
// explicit set, so "?category=" selects no category at all.
func specFromQuery(q url.Values, knownCategories []string) models.FilterSpec {
	months := models.AllOf()
	if values, ok := q["month"]; ok {
		months = models.ExplicitSet(nonBlank(values)...)
	}

	stores := models.AllOf()
	if values, ok := q["store"]; ok {
		stores = models.ExplicitSet(nonBlank(values)...)
	}

	categories := knownCategories
	if values, ok := q["category"]; ok {
		categories = nonBlank(values)
	}

	return models.NewFilterSpec(months, stores, categories)
}

// filterSignals mirrors the datastar signals of the dashboard page.
type filterSignals struct {
	AllMonths  bool     `json:"allMonths"`
	Months     []string `json:"months"`
	AllStores  bool     `json:"allStores"`
	Stores     []string `json:"stores"`
	Categories []string `json:"categories"`
}

func defaultSignals(opts models.FilterOptions) filterSignals {
	months := make([]string, 0, len(opts.Months))
	for _, m := range opts.Months {
		months = append(months, string(m))
	}
	return filterSignals{
		AllMonths:  true,
		Months:     months,
		AllStores:  true,
		Stores:     []string{},
		Categories: append([]string{}, opts.Categories...),
	}
}

func (s filterSignals) spec() models.FilterSpec {
	months := models.AllOf()
	if !s.AllMonths {
		months = models.ExplicitSet(nonBlank(s.Months)...)
	}
	stores := models.AllOf()
	if !s.AllStores {
		stores = models.ExplicitSet(nonBlank(s.Stores)...)
	}
	return models.NewFilterSpec(months, stores, nonBlank(s.Categories))
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
