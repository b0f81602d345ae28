// Package location turns parameter vectors into fixed-width location codes.
//
// Every encoder emits fragments of one width for all inputs of its
// parameter, so the separator-free concatenation of fragments can be split
// back positionally.
package location

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"trajectory-stn/core/param"
	"trajectory-stn/internal/errors"
)

// Placeholder fills the fragment of an absent numeric value
const Placeholder = "x"

// RuleKind identifies the encoding rule
type RuleKind int

const (
	// RuleLookup maps domain tokens through a table
	RuleLookup RuleKind = iota
	// RuleRange quantizes numbers into buckets
	RuleRange
)

// String returns the rule name
func (k RuleKind) String() string {
	if k == RuleRange {
		return "range"
	}
	return "lookup"
}

// Encoder encodes one parameter's values into code fragments
type Encoder struct {
	name  string
	rule  RuleKind
	width int

	// lookup
	table map[string]string

	// range
	lower       decimal.Decimal
	bucketWidth decimal.Decimal
	digits      int32
}

// NewLookupEncoder builds a table encoder. Entries must share one width.
func NewLookupEncoder(name string, table map[string]string) (*Encoder, error) {
	if len(table) == 0 {
		return nil, errors.Encoding("encoder %s: empty lookup table", name)
	}
	width := -1
	for token, code := range table {
		if code == "" {
			return nil, errors.Encoding("encoder %s: empty code for %q", name, token)
		}
		if width >= 0 && len(code) != width {
			return nil, errors.Encoding("encoder %s: codes of different widths (%d and %d)", name, width, len(code))
		}
		width = len(code)
	}

	owned := make(map[string]string, len(table))
	for k, v := range table {
		owned[k] = v
	}
	return &Encoder{name: name, rule: RuleLookup, width: width, table: owned}, nil
}

// NewIndexEncoder builds a lookup table from the schema's domain order,
// coding each value by its zero-padded position. Nullable schemas code the
// missing marker as placeholders.
func NewIndexEncoder(schema *param.Schema) (*Encoder, error) {
	if schema.Kind == param.NumericRange {
		return nil, errors.Encoding("encoder %s: index rule needs a categorical or ordinal schema", schema.Name)
	}
	width := len(strconv.Itoa(len(schema.Values) - 1))
	table := make(map[string]string, len(schema.Values))
	for i, v := range schema.Values {
		table[v.Token()] = fmt.Sprintf("%0*d", width, i)
	}
	if schema.Storage.Nullable() {
		table[param.MissingMarker] = strings.Repeat(Placeholder, width)
	}
	return NewLookupEncoder(schema.Name, table)
}

// NewRangeEncoder builds a bucket encoder for a numeric range schema.
// Misconfiguration is rejected here so no record is processed with it.
func NewRangeEncoder(schema *param.Schema, bucketWidth decimal.Decimal, digits int) (*Encoder, error) {
	if schema.Kind != param.NumericRange {
		return nil, errors.Encoding("encoder %s: range rule needs a numeric range schema, got %s", schema.Name, schema.Kind)
	}
	if digits < 0 {
		return nil, errors.Encoding("encoder %s: significant digits %d < 0", schema.Name, digits)
	}
	if !bucketWidth.IsPositive() {
		return nil, errors.Encoding("encoder %s: bucket width %s must be positive", schema.Name, bucketWidth)
	}
	if span := schema.Upper.Sub(schema.Lower); bucketWidth.GreaterThanOrEqual(span) {
		return nil, errors.Encoding("encoder %s: bucket width %s must be below range span %s", schema.Name, bucketWidth, span)
	}
	if schema.Lower.IsNegative() {
		return nil, errors.Encoding("encoder %s: negative lower bound %s is not supported; range codes are unsigned digit strings, shift the range to start at 0 or above", schema.Name, schema.Lower)
	}

	return &Encoder{
		name:        schema.Name,
		rule:        RuleRange,
		width:       len(schema.Upper.Floor().BigInt().String()) + digits,
		lower:       schema.Lower,
		bucketWidth: bucketWidth,
		digits:      int32(digits),
	}, nil
}

// Name returns the parameter name
func (e *Encoder) Name() string { return e.name }

// Rule returns the rule kind
func (e *Encoder) Rule() RuleKind { return e.rule }

// Width returns the fragment width
func (e *Encoder) Width() int { return e.width }

// Encode renders one parameter value as a code fragment
func (e *Encoder) Encode(p param.Parameter, schema *param.Schema) (string, error) {
	if p.Name != e.name || schema.Name != e.name {
		return "", errors.SchemaMismatch("encoder %s got parameter %q with schema %q", e.name, p.Name, schema.Name)
	}
	switch e.rule {
	case RuleLookup:
		if schema.Kind == param.NumericRange {
			return "", errors.Encoding("encoder %s: lookup rule on a numeric range schema", e.name)
		}
		code, ok := e.table[p.Value.Token()]
		if !ok {
			return "", errors.Domain("encoder %s: no code for value %q", e.name, p.Value.Token())
		}
		return code, nil
	case RuleRange:
		if schema.Kind != param.NumericRange {
			return "", errors.Encoding("encoder %s: range rule on a %s schema", e.name, schema.Kind)
		}
		return e.encodeRange(p.Value)
	}
	return "", errors.Encoding("encoder %s: unknown rule %d", e.name, e.rule)
}

func (e *Encoder) encodeRange(v param.Value) (string, error) {
	if v.IsAbsent() {
		return strings.Repeat(Placeholder, e.width), nil
	}
	d, ok := v.Decimal()
	if !ok {
		return "", errors.Domain("encoder %s: %s value in numeric range", e.name, v.Kind())
	}

	scaled := e.BucketValue(d).Shift(e.digits).Floor().BigInt().String()
	if len(scaled) > e.width || strings.HasPrefix(scaled, "-") {
		return "", errors.Domain("encoder %s: value %s does not fit %d digits", e.name, d, e.width)
	}
	return strings.Repeat("0", e.width-len(scaled)) + scaled, nil
}

// BucketIndex returns floor((v - lower) / width)
func (e *Encoder) BucketIndex(v decimal.Decimal) decimal.Decimal {
	q, r := v.Sub(e.lower).QuoRem(e.bucketWidth, 0)
	if r.IsNegative() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q
}

// BucketValue returns the representative (lower edge) of v's bucket
func (e *Encoder) BucketValue(v decimal.Decimal) decimal.Decimal {
	return e.lower.Add(e.BucketIndex(v).Mul(e.bucketWidth))
}

// decode maps a fragment back to a representative token
func (e *Encoder) decode(fragment string, schema *param.Schema) (string, error) {
	switch e.rule {
	case RuleLookup:
		for _, v := range schema.Values {
			if e.table[v.Token()] == fragment {
				return v.Token(), nil
			}
		}
		if code, ok := e.table[param.MissingMarker]; ok && schema.Storage.Nullable() && code == fragment {
			return param.MissingMarker, nil
		}
		return "", errors.Domain("encoder %s: unknown fragment %q", e.name, fragment)
	default:
		if fragment == strings.Repeat(Placeholder, e.width) {
			return param.MissingMarker, nil
		}
		scaled, err := decimal.NewFromString(fragment)
		if err != nil {
			return "", errors.Wrapf(errors.TypeDomain, err, "encoder %s: bad fragment %q", e.name, fragment)
		}
		return scaled.Shift(-e.digits).String(), nil
	}
}
