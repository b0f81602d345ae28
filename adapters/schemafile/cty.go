package schemafile

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// SafeValue is a cty value converted to plain Go. Unknown values are never
// passed through silently.
type SafeValue struct {
	// string, *big.Float, bool, []SafeValue or map[string]SafeValue
	Value interface{}

	IsKnown bool
	IsNull  bool
	Type    SafeValueType

	// Original cty type name
	CtyType string

	UnknownReason string
}

// SafeValueType indicates the type of value
type SafeValueType int

const (
	SafeTypeUnknown SafeValueType = iota
	SafeTypeNull
	SafeTypeString
	SafeTypeNumber
	SafeTypeBool
	SafeTypeList
	SafeTypeMap
)

// String returns the type name
func (t SafeValueType) String() string {
	switch t {
	case SafeTypeString:
		return "string"
	case SafeTypeNumber:
		return "number"
	case SafeTypeBool:
		return "bool"
	case SafeTypeList:
		return "list"
	case SafeTypeMap:
		return "map"
	case SafeTypeNull:
		return "null"
	default:
		return "unknown"
	}
}

// CtyToSafe converts a cty.Value, keeping unknown and null status
func CtyToSafe(val cty.Value) SafeValue {
	result := SafeValue{
		CtyType: val.Type().FriendlyName(),
	}

	if !val.IsKnown() {
		result.Type = SafeTypeUnknown
		result.UnknownReason = "value not known"
		return result
	}

	if val.IsNull() {
		result.IsNull = true
		result.IsKnown = true
		result.Type = SafeTypeNull
		return result
	}

	result.IsKnown = true

	switch {
	case val.Type() == cty.String:
		result.Type = SafeTypeString
		result.Value = val.AsString()

	case val.Type() == cty.Number:
		// Kept as big.Float so decimal literals survive without float64 rounding
		result.Type = SafeTypeNumber
		result.Value = val.AsBigFloat()

	case val.Type() == cty.Bool:
		result.Type = SafeTypeBool
		result.Value = val.True()

	case val.Type().IsListType() || val.Type().IsSetType() || val.Type().IsTupleType():
		result.Type = SafeTypeList
		result.Value = convertList(val)

	case val.Type().IsMapType() || val.Type().IsObjectType():
		result.Type = SafeTypeMap
		result.Value = convertMap(val)

	default:
		result.IsKnown = false
		result.Type = SafeTypeUnknown
		result.UnknownReason = fmt.Sprintf("unhandled cty type: %s", val.Type().FriendlyName())
	}

	return result
}

func convertList(val cty.Value) []SafeValue {
	result := make([]SafeValue, 0, val.LengthInt())
	iter := val.ElementIterator()
	for iter.Next() {
		_, v := iter.Element()
		result = append(result, CtyToSafe(v))
	}
	return result
}

func convertMap(val cty.Value) map[string]SafeValue {
	result := make(map[string]SafeValue, val.LengthInt())
	iter := val.ElementIterator()
	for iter.Next() {
		k, v := iter.Element()
		result[k.AsString()] = CtyToSafe(v)
	}
	return result
}

// Text renders a string or number as text. Numbers use the shortest
// decimal form that round-trips.
func (v SafeValue) Text() (string, bool) {
	if !v.IsKnown || v.IsNull {
		return "", false
	}
	switch x := v.Value.(type) {
	case string:
		return x, true
	case *big.Float:
		return x.Text('f', -1), true
	}
	return "", false
}

// Int returns a whole number
func (v SafeValue) Int() (int, bool) {
	f, ok := v.Value.(*big.Float)
	if !ok || !v.IsKnown || v.IsNull || !f.IsInt() {
		return 0, false
	}
	n, acc := f.Int64()
	if acc != big.Exact {
		return 0, false
	}
	return int(n), true
}
