// Package param defines parameter values and the schemas that cast and
// validate them.
package param

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// MissingMarker is the literal token for an absent numeric value
const MissingMarker = "NA"

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	// KindAbsent is a missing numeric value
	KindAbsent ValueKind = iota
	// KindString holds a string
	KindString
	// KindInt holds an integer
	KindInt
	// KindFloat holds an exact decimal
	KindFloat
)

// String returns the kind name
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "absent"
	}
}

// Value is an immutable tagged variant. The zero value is absent.
type Value struct {
	kind ValueKind
	str  string
	i    int64
	f    decimal.Decimal
}

// Absent returns the missing value
func Absent() Value { return Value{kind: KindAbsent} }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a decimal value
func Float(d decimal.Decimal) Value { return Value{kind: KindFloat, f: d} }

// Kind returns the variant tag
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the value is missing
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Str returns the string payload
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Int returns the integer payload
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Decimal returns the numeric payload for int and float values
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindInt:
		return decimal.NewFromInt(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return decimal.Zero, false
	}
}

// Token returns the canonical textual form. Equal values always share a
// token, so tokens key domain sets and lookup tables.
func (v Value) Token() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return v.f.String()
	default:
		return MissingMarker
	}
}

// String implements Stringer
func (v Value) String() string { return v.Token() }

// Equal compares variant and payload
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f.Equal(other.f)
	default:
		return true
	}
}

// Parameter is a named value owned by one configuration
type Parameter struct {
	Name  string
	Value Value
}
