package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID              string          `json:"transaction_id"`
	Date            time.Time       `json:"transaction_date"`
	TimeOfDay       string          `json:"transaction_time"`
	StoreLocation   string          `json:"store_location"`
	ProductCategory string          `json:"product_category"`
	ProductType     string          `json:"product_type,omitempty"`
	ProductDetail   string          `json:"product_detail,omitempty"`
	Quantity        int             `json:"transaction_qty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// Month returns the month bucket the transaction belongs to.
func (t Transaction) Month() MonthKey {
	return MonthKeyOf(t.Date)
}

// Revenue is quantity times unit price for this line item.
func (t Transaction) Revenue() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))
}

// MonthKey identifies a calendar month as "YYYY-M", without zero padding.
type MonthKey string

func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%d-%d", t.Year(), int(t.Month())))
}

type FilterOptions struct {
	Months     []MonthKey `json:"months"`
	Stores     []string   `json:"stores"`
	Categories []string   `json:"categories"`
}
