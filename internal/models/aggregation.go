package models

import "github.com/shopspring/decimal"

type SummaryMetrics struct {
	TotalQuantity int             `json:"total_quantity"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	Records       int             `json:"records"`
}

type CategoryQuantity struct {
	Category string `json:"product_category"`
	Quantity int    `json:"transaction_qty"`
}

// CategoryBreakdown holds one entry per category present, ascending by name.
type CategoryBreakdown []CategoryQuantity

func (b CategoryBreakdown) Get(category string) (int, bool) {
	for _, e := range b {
		if e.Category == category {
			return e.Quantity, true
		}
	}
	return 0, false
}

func (b CategoryBreakdown) Total() int {
	total := 0
	for _, e := range b {
		total += e.Quantity
	}
	return total
}

type HourQuantity struct {
	Hour     int `json:"transaction_time"`
	Quantity int `json:"transaction_qty"`
}

// HourlyBreakdown holds one entry per hour of day present, ascending by hour.
type HourlyBreakdown []HourQuantity

func (b HourlyBreakdown) Get(hour int) (int, bool) {
	for _, e := range b {
		if e.Hour == hour {
			return e.Quantity, true
		}
	}
	return 0, false
}

func (b HourlyBreakdown) Total() int {
	total := 0
	for _, e := range b {
		total += e.Quantity
	}
	return total
}

type Aggregation struct {
	Metrics    SummaryMetrics
	Categories CategoryBreakdown
	Hours      HourlyBreakdown
	// Warnings lists records left out of Hours because their time of day
	// could not be parsed.
	Warnings []error
}
