// Package query implements the structured query language: a parsed
// expression tree over a uniform field-access abstraction, with filtering,
// sorting, pagination and aggregation.
package query

import (
	"fmt"
	"strconv"

	"github.com/tasktaskrevolution/ttr/internal/domain"
)

// ValueKind discriminates query values.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueDate
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "boolean"
	case ValueDate:
		return "date"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is a scalar produced by parsing a query or by field access.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Date domain.Date
}

func String(s string) Value       { return Value{Kind: ValueString, Str: s} }
func Number(n float64) Value      { return Value{Kind: ValueNumber, Num: n} }
func Bool(b bool) Value           { return Value{Kind: ValueBool, Bool: b} }
func DateVal(d domain.Date) Value { return Value{Kind: ValueDate, Date: d} }

func (v Value) display() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueDate:
		return v.Date.String()
	}
	return ""
}

// asNumber extracts a numeric view: numbers directly, numeric strings by
// parsing.
func (v Value) asNumber() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Num, true
	case ValueString:
		n, err := strconv.ParseFloat(v.Str, 64)
		return n, err == nil
	}
	return 0, false
}

// asString stringifies any scalar.
func (v Value) asString() string { return v.display() }

// asDate extracts a date view: dates directly, date-shaped strings by
// parsing.
func (v Value) asDate() (domain.Date, bool) {
	switch v.Kind {
	case ValueDate:
		return v.Date, true
	case ValueString:
		d, err := domain.ParseDate(v.Str)
		return d, err == nil
	}
	return domain.Date{}, false
}
