package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"coffee-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10

	utf8BOM = "\ufeff"
)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006"}

var requiredColumns = []string{
	"transaction_date",
	"transaction_time",
	"transaction_qty",
	"store_location",
	"unit_price",
	"product_category",
}

// LoadReport summarizes one ingestion run.
type LoadReport struct {
	Rows     int `json:"rows"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type columnIndex map[string]int

func (c columnIndex) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// LoadTransactions parses a coffee shop sales CSV. Rows with a missing
// field, an unparsable value or a negative quantity or price are rejected.
// The accepted transactions are returned sorted by date, with the file
// order kept between equal dates.
func LoadTransactions(ctx context.Context, r io.Reader) ([]models.Transaction, LoadReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, LoadReport{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("read header: %w", err)
	}

	columns := make(columnIndex, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, LoadReport{}, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		report       LoadReport
		transactions []models.Transaction
		batch        = make([][]string, 0, batchSize)
	)

	flush := func() error {
		parsed, err := parseBatch(ctx, batch, report.Rows-len(batch)+1, columns)
		if err != nil {
			return err
		}
		for _, p := range parsed {
			if p.valid {
				transactions = append(transactions, p.tx)
			}
		}
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, report, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("read row %d: %w", report.Rows+1, err)
		}
		report.Rows++
		batch = append(batch, record)

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, report, err
			}
		}
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, report, err
		}
	}

	report.Accepted = len(transactions)
	report.Rejected = report.Rows - report.Accepted

	if report.Accepted == 0 {
		return nil, report, fmt.Errorf("no valid records found")
	}

	slices.SortStableFunc(transactions, func(a, b models.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	return transactions, report, nil
}

type parsedRow struct {
	tx    models.Transaction
	valid bool
}

// parseBatch parses rows concurrently; the result keeps the batch order.
// firstRow is the 1-based data row number of batch[0].
func parseBatch(ctx context.Context, batch [][]string, firstRow int, columns columnIndex) ([]parsedRow, error) {
	var g errgroup.Group
	g.SetLimit(maxWorkers)

	parsed := make([]parsedRow, len(batch))
	chunk := (len(batch) + maxWorkers - 1) / maxWorkers

	for start := 0; start < len(batch); start += chunk {
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				tx, err := parseTransaction(batch[i], firstRow+i, columns)
				parsed[i] = parsedRow{tx: tx, valid: err == nil}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseTransaction builds one transaction. Files without a transaction_id
// column get "row-N" identifiers.
func parseTransaction(record []string, row int, columns columnIndex) (models.Transaction, error) {
	for _, name := range requiredColumns {
		if columns.get(record, name) == "" {
			return models.Transaction{}, fmt.Errorf("missing %s", name)
		}
	}

	date, err := parseDate(columns.get(record, "transaction_date"))
	if err != nil {
		return models.Transaction{}, err
	}

	quantity, err := strconv.Atoi(columns.get(record, "transaction_qty"))
	if err != nil {
		return models.Transaction{}, err
	}
	if quantity < 0 {
		return models.Transaction{}, fmt.Errorf("negative quantity %d", quantity)
	}

	price, err := decimal.NewFromString(columns.get(record, "unit_price"))
	if err != nil {
		return models.Transaction{}, err
	}
	if price.IsNegative() {
		return models.Transaction{}, fmt.Errorf("negative unit price %s", price)
	}

	id := columns.get(record, "transaction_id")
	if id == "" {
		id = "row-" + strconv.Itoa(row)
	}

	return models.Transaction{
		ID:              id,
		Date:            date,
		TimeOfDay:       columns.get(record, "transaction_time"),
		StoreLocation:   columns.get(record, "store_location"),
		ProductCategory: columns.get(record, "product_category"),
		ProductType:     columns.get(record, "product_type"),
		ProductDetail:   columns.get(record, "product_detail"),
		Quantity:        quantity,
		UnitPrice:       price,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
