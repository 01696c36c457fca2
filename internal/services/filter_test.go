package services

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-dashboard/internal/models"
)

var (
	testStores     = []string{"Astoria", "Hell's Kitchen", "Lower Manhattan"}
	testCategories = []string{"Bakery", "Coffee", "Tea", "Drinking Chocolate"}
	testTimes      = []string{"07:15:00", "08:30:12", "09:00", "12:45:00", "14:00:59", "18:05:00", "bad-value"}
)

func newTx(id string, date time.Time, timeOfDay, store, category string, qty int, price string) models.Transaction {
	return models.Transaction{
		ID:              id,
		Date:            date,
		TimeOfDay:       timeOfDay,
		StoreLocation:   store,
		ProductCategory: category,
		Quantity:        qty,
		UnitPrice:       decimal.RequireFromString(price),
	}
}

// randomDataset builds a date-sorted dataset spanning three months.
func randomDataset(seed uint64, n int) []models.Transaction {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	data := make([]models.Transaction, n)
	for i := range data {
		data[i] = newTx(
			fmt.Sprintf("T%04d", i),
			start.AddDate(0, 0, i*90/n),
			testTimes[rng.IntN(len(testTimes))],
			testStores[rng.IntN(len(testStores))],
			testCategories[rng.IntN(len(testCategories))],
			rng.IntN(5),
			fmt.Sprintf("%d.%02d", 1+rng.IntN(6), rng.IntN(100)),
		)
	}
	return data
}

func testSpecs() []models.FilterSpec {
	return []models.FilterSpec{
		models.DefaultFilterSpec(testCategories),
		models.NewFilterSpec(models.ExplicitSet("2023-1"), models.AllOf(), testCategories),
		models.NewFilterSpec(models.AllOf(), models.ExplicitSet("Astoria"), []string{"Coffee"}),
		models.NewFilterSpec(models.ExplicitSet("2023-2", "2023-3"), models.ExplicitSet("Astoria", "Lower Manhattan"), []string{"Tea", "Bakery"}),
		models.NewFilterSpec(models.ExplicitSet("2024-7"), models.AllOf(), testCategories),
		models.NewFilterSpec(models.AllOf(), models.AllOf(), nil),
	}
}

func TestFilter_Scenario1(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	data := []models.Transaction{
		newTx("1", day, "09:00:00", "A", "Coffee", 2, "3.00"),
		newTx("2", day, "10:00:00", "B", "Tea", 1, "2.50"),
	}

	filtered := Filter(data, models.NewFilterSpec(models.AllOf(), models.AllOf(), []string{"Coffee"}))

	require.Len(t, filtered, 1)
	assert.Equal(t, "1", filtered[0].ID)
}

func TestFilter_Stages(t *testing.T) {
	jan := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	data := []models.Transaction{
		newTx("1", jan, "09:00", "A", "Coffee", 1, "1"),
		newTx("2", jan, "09:00", "B", "Coffee", 1, "1"),
		newTx("3", feb, "09:00", "A", "Tea", 1, "1"),
		newTx("4", feb, "09:00", "B", "Coffee", 1, "1"),
	}
	all := []string{"Coffee", "Tea"}

	tests := []struct {
		name string
		spec models.FilterSpec
		want []string
	}{
		{"everything", models.DefaultFilterSpec(all), []string{"1", "2", "3", "4"}},
		{"month", models.NewFilterSpec(models.ExplicitSet("2024-2"), models.AllOf(), all), []string{"3", "4"}},
		{"store", models.NewFilterSpec(models.AllOf(), models.ExplicitSet("A"), all), []string{"1", "3"}},
		{"category", models.NewFilterSpec(models.AllOf(), models.AllOf(), []string{"Coffee"}), []string{"1", "2", "4"}},
		{"combined", models.NewFilterSpec(models.ExplicitSet("2024-2"), models.ExplicitSet("B"), []string{"Coffee"}), []string{"4"}},
		{"zero padded month never matches", models.NewFilterSpec(models.ExplicitSet("2024-01"), models.AllOf(), all), nil},
		{"empty month set", models.NewFilterSpec(models.ExplicitSet(), models.AllOf(), all), nil},
		{"empty store set", models.NewFilterSpec(models.AllOf(), models.ExplicitSet(), all), nil},
		{"unknown store", models.NewFilterSpec(models.AllOf(), models.ExplicitSet("Z"), all), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tx := range Filter(data, tt.spec) {
				got = append(got, tx.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_EmptyDataset(t *testing.T) {
	filtered := Filter(nil, models.DefaultFilterSpec(testCategories))
	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	data := randomDataset(7, 50)
	original := append([]models.Transaction(nil), data...)

	filtered := Filter(data, models.DefaultFilterSpec(testCategories))
	require.NotEmpty(t, filtered)
	filtered[0].Quantity = 999

	assert.Equal(t, original, data)
}

func TestFilter_Idempotent(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		data := randomDataset(seed, 200)
		for i, spec := range testSpecs() {
			once := Filter(data, spec)
			twice := Filter(once, spec)
			assert.Equal(t, once, twice, "seed %d filter %d", seed, i)
		}
	}
}

func TestFilter_Monotonic(t *testing.T) {
	narrow := models.NewFilterSpec(models.ExplicitSet("2023-1"), models.ExplicitSet("Astoria"), []string{"Coffee"})
	wider := []models.FilterSpec{
		models.NewFilterSpec(models.ExplicitSet("2023-1", "2023-2"), models.ExplicitSet("Astoria"), []string{"Coffee"}),
		models.NewFilterSpec(models.ExplicitSet("2023-1"), models.AllOf(), []string{"Coffee", "Tea"}),
		models.DefaultFilterSpec(testCategories),
	}

	for seed := uint64(1); seed <= 5; seed++ {
		data := randomDataset(seed, 200)
		for _, wide := range wider {
			require.True(t, narrow.IsNarrowerThan(wide))
			assert.LessOrEqual(t, len(Filter(data, narrow)), len(Filter(data, wide)))
		}
	}
}

func TestFilter_CategoriesPartitionDataset(t *testing.T) {
	data := randomDataset(11, 300)
	full, err := Aggregate(data)
	require.NoError(t, err)

	sum := 0
	for _, category := range testCategories {
		part := Filter(data, models.NewFilterSpec(models.AllOf(), models.AllOf(), []string{category}))
		agg, err := Aggregate(part)
		if len(part) == 0 {
			continue
		}
		require.NoError(t, err)
		sum += agg.Metrics.TotalQuantity
	}

	assert.Equal(t, full.Metrics.TotalQuantity, sum)
	assert.Equal(t, full.Metrics.TotalQuantity, full.Categories.Total())
}

func TestFilter_EmptyCategorySelection(t *testing.T) {
	data := randomDataset(3, 100)
	specs := []models.FilterSpec{
		models.NewFilterSpec(models.AllOf(), models.AllOf(), []string{}),
		models.NewFilterSpec(models.ExplicitSet("2023-1"), models.ExplicitSet("Astoria"), nil),
	}
	for _, spec := range specs {
		assert.Empty(t, Filter(data, spec))
	}
}

func TestFilter_RoundTrip(t *testing.T) {
	data := randomDataset(5, 150)
	assert.Equal(t, data, Filter(data, models.DefaultFilterSpec(testCategories)))
}
