package models

import (
	"slices"
)

// Selection is either "all values" or an explicit set of values.
// An explicit set with no members matches nothing.
type Selection struct {
	all    bool
	values map[string]struct{}
}

func AllOf() Selection {
	return Selection{all: true}
}

func ExplicitSet(values ...string) Selection {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Selection{values: set}
}

func (s Selection) IsAll() bool {
	return s.all
}

func (s Selection) Contains(value string) bool {
	if s.all {
		return true
	}
	_, ok := s.values[value]
	return ok
}

// Len is the number of explicit members; it is zero for AllOf.
func (s Selection) Len() int {
	return len(s.values)
}

// Values returns the explicit members in ascending order.
func (s Selection) Values() []string {
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// IsSubsetOf reports whether every value matched by s is also matched by other.
func (s Selection) IsSubsetOf(other Selection) bool {
	if other.all {
		return true
	}
	if s.all {
		return false
	}
	for v := range s.values {
		if _, ok := other.values[v]; !ok {
			return false
		}
	}
	return true
}

// FilterSpec is an immutable query over the transaction dataset.
// Build one with NewFilterSpec; the zero value matches nothing.
type FilterSpec struct {
	months     Selection
	stores     Selection
	categories Selection
}

func NewFilterSpec(months, stores Selection, categories []string) FilterSpec {
	return FilterSpec{
		months:     months.clone(),
		stores:     stores.clone(),
		categories: ExplicitSet(categories...),
	}
}

// DefaultFilterSpec selects every month, every store and the given categories.
func DefaultFilterSpec(categories []string) FilterSpec {
	return NewFilterSpec(AllOf(), AllOf(), categories)
}

func (f FilterSpec) Months() Selection     { return f.months }
func (f FilterSpec) Stores() Selection     { return f.stores }
func (f FilterSpec) Categories() Selection { return f.categories }

// Match reports whether tx satisfies every stage of the filter.
func (f FilterSpec) Match(tx Transaction) bool {
	return f.months.Contains(string(tx.Month())) &&
		f.stores.Contains(tx.StoreLocation) &&
		f.categories.Contains(tx.ProductCategory)
}

// IsNarrowerThan reports whether every selection of f is a subset of the
// matching selection of other.
func (f FilterSpec) IsNarrowerThan(other FilterSpec) bool {
	return f.months.IsSubsetOf(other.months) &&
		f.stores.IsSubsetOf(other.stores) &&
		f.categories.IsSubsetOf(other.categories)
}

func (s Selection) clone() Selection {
	if s.all {
		return AllOf()
	}
	values := make([]string, 0, len(s.values))
	for v := range s.values {
		values = append(values, v)
	}
	return ExplicitSet(values...)
}
