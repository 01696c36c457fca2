package services

import (
	"coffee-dashboard/internal/models"
)

// Filter returns the transactions that satisfy spec, in input order.
// Months, stores and categories are AND-combined; values within one
// selection are OR-combined. The input is never modified and the result
// never shares its backing array.
func Filter(dataset []models.Transaction, spec models.FilterSpec) []models.Transaction {
	// An empty explicit selection cannot match anything.
	if spec.Categories().Len() == 0 ||
		(!spec.Months().IsAll() && spec.Months().Len() == 0) ||
		(!spec.Stores().IsAll() && spec.Stores().Len() == 0) {
		return []models.Transaction{}
	}

	filtered := make([]models.Transaction, 0, len(dataset))
	for _, tx := range dataset {
		if spec.Match(tx) {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}
