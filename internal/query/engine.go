package query

import (
	"fmt"
	"sort"
)

// SortOption orders the filtered set on one field.
type SortOption struct {
	Field      string
	Descending bool
}

// AggregationKind selects the aggregate computed over the paginated set.
type AggregationKind int

const (
	AggCount AggregationKind = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

func (k AggregationKind) String() string {
	switch k {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	}
	return fmt.Sprintf("AggregationKind(%d)", int(k))
}

// Aggregation names a numeric field to aggregate. Count ignores the field.
type Aggregation struct {
	Kind  AggregationKind
	Field string
}

// AggregationResult is the computed aggregate.
type AggregationResult struct {
	Kind  AggregationKind
	Field string
	Value float64
}

// Options bundles the optional sort, pagination and aggregation directives.
// Limit < 0 means no limit.
type Options struct {
	Sort        *SortOption
	Offset      int
	Limit       int
	Aggregation *Aggregation
}

// DefaultOptions applies no sort, no pagination and no aggregation.
func DefaultOptions() Options {
	return Options{Limit: -1}
}

// Result is the outcome of executing a query over an item set.
type Result struct {
	Items       []Queryable
	TotalCount  int
	FilterCount int
	Aggregation *AggregationResult
}

// Execute filters, sorts, paginates and aggregates, in that order. The
// aggregate runs over the paginated set; callers wanting global aggregates
// omit pagination.
func Execute(expr Expr, items []Queryable, opts Options) (Result, error) {
	res := Result{TotalCount: len(items)}

	filtered := make([]Queryable, 0, len(items))
	for _, item := range items {
		match, err := expr.Eval(item)
		if err != nil {
			return Result{}, err
		}
		if match {
			filtered = append(filtered, item)
		}
	}
	res.FilterCount = len(filtered)

	if opts.Sort != nil {
		if err := sortItems(filtered, *opts.Sort); err != nil {
			return Result{}, err
		}
	}

	filtered = paginate(filtered, opts.Offset, opts.Limit)

	if opts.Aggregation != nil {
		agg, err := aggregate(filtered, *opts.Aggregation)
		if err != nil {
			return Result{}, err
		}
		res.Aggregation = &agg
	}

	res.Items = filtered
	return res, nil
}

// sortItems stable-sorts on one field. Items without the field sort last in
// ascending mode and first in descending mode.
func sortItems(items []Queryable, opt SortOption) error {
	type row struct {
		item  Queryable
		value Value
		ok    bool
	}
	rows := make([]row, len(items))
	for i, item := range items {
		v, ok := item.Field(opt.Field)
		rows[i] = row{item: item, value: v, ok: ok}
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.ok || !b.ok {
			if a.ok == b.ok {
				return false
			}
			if opt.Descending {
				return !a.ok // absent first
			}
			return a.ok // absent last
		}
		var less bool
		var err error
		if opt.Descending {
			less, err = valueLess(b.value, a.value)
		} else {
			less, err = valueLess(a.value, b.value)
		}
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return &TypeMismatchError{Field: opt.Field, Expected: "comparable values", Actual: "mixed types"}
	}

	for i, r := range rows {
		items[i] = r.item
	}
	return nil
}

func valueLess(a, b Value) (bool, error) {
	if a.Kind == ValueDate || b.Kind == ValueDate {
		ad, okA := a.asDate()
		bd, okB := b.asDate()
		if okA && okB {
			return ad.Before(bd), nil
		}
		return false, fmt.Errorf("incomparable values")
	}
	if a.Kind == ValueNumber || b.Kind == ValueNumber {
		an, okA := a.asNumber()
		bn, okB := b.asNumber()
		if okA && okB {
			return an < bn, nil
		}
		return false, fmt.Errorf("incomparable values")
	}
	return a.asString() < b.asString(), nil
}

// paginate applies offset then limit. Limit < 0 disables the limit.
func paginate(items []Queryable, offset, limit int) []Queryable {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []Queryable{}
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// aggregate computes one aggregate over the items. Sum, avg, min and max
// require a numeric field on every item.
func aggregate(items []Queryable, agg Aggregation) (AggregationResult, error) {
	out := AggregationResult{Kind: agg.Kind, Field: agg.Field}
	if agg.Kind == AggCount {
		out.Value = float64(len(items))
		return out, nil
	}

	var nums []float64
	for _, item := range items {
		v, ok := item.Field(agg.Field)
		if !ok {
			return AggregationResult{}, &InvalidFieldError{Field: agg.Field}
		}
		n, ok := v.asNumber()
		if !ok {
			return AggregationResult{}, &TypeMismatchError{Field: agg.Field, Expected: "number", Actual: v.Kind.String()}
		}
		nums = append(nums, n)
	}
	if len(nums) == 0 {
		return out, nil
	}

	switch agg.Kind {
	case AggSum, AggAvg:
		var sum float64
		for _, n := range nums {
			sum += n
		}
		if agg.Kind == AggAvg {
			sum /= float64(len(nums))
		}
		out.Value = sum
	case AggMin:
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		out.Value = m
	case AggMax:
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		out.Value = m
	default:
		return AggregationResult{}, &UnsupportedOperatorError{Operator: agg.Kind.String(), Field: agg.Field}
	}
	return out, nil
}
