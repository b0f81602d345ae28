package param

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"trajectory-stn/internal/errors"
)

// StorageType is how raw tokens are parsed
type StorageType string

const (
	StorageString StorageType = "string"
	StorageInt    StorageType = "int"
	StorageFloat  StorageType = "float"
)

// Nullable reports whether the missing marker casts to absent
func (t StorageType) Nullable() bool {
	return t == StorageInt || t == StorageFloat
}

// ParseStorageType accepts long names and the single-letter codes
// used by irace-style parameter files (s, i, f).
func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "string":
		return StorageString, nil
	case "i", "int", "integer":
		return StorageInt, nil
	case "f", "r", "float", "real":
		return StorageFloat, nil
	}
	return "", errors.Config("unknown storage type %q", s)
}

// DomainKind is how a parameter's domain is described
type DomainKind string

const (
	Categorical  DomainKind = "categorical"
	Ordinal      DomainKind = "ordinal"
	NumericRange DomainKind = "range"
)

// ParseDomainKind accepts long names and the codes c, o, r, i
func ParseDomainKind(s string) (DomainKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "categorical":
		return Categorical, nil
	case "o", "ordinal":
		return Ordinal, nil
	case "r", "i", "range", "numeric_range", "numeric":
		return NumericRange, nil
	}
	return "", errors.Config("unknown value kind %q", s)
}

// Schema is the per-parameter contract: storage type, domain kind and
// admissible values or bounds. Schemas are read-only once built.
type Schema struct {
	Name    string
	Storage StorageType
	Kind    DomainKind

	// Values is the ordered domain for categorical and ordinal kinds
	Values []Value

	// Lower and Upper bound a numeric range, inclusive
	Lower decimal.Decimal
	Upper decimal.Decimal

	members map[string]struct{}
}

// NewSetSchema builds a categorical or ordinal schema. Domain tokens are
// cast with the storage type so "1.0" and "1" collapse for float storage.
func NewSetSchema(name string, storage StorageType, kind DomainKind, tokens []string) (*Schema, error) {
	if name == "" {
		return nil, errors.Config("parameter name is empty")
	}
	if kind != Categorical && kind != Ordinal {
		return nil, errors.Config("parameter %s: %s is not a set kind", name, kind)
	}
	if len(tokens) == 0 {
		return nil, errors.Config("parameter %s: empty domain", name)
	}

	s := &Schema{
		Name:    name,
		Storage: storage,
		Kind:    kind,
		members: make(map[string]struct{}, len(tokens)),
	}
	for _, tok := range tokens {
		v, err := s.parse(tok)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "parameter %s: bad domain value", name)
		}
		if _, dup := s.members[v.Token()]; dup {
			return nil, errors.Config("parameter %s: duplicate domain value %q", name, tok)
		}
		s.members[v.Token()] = struct{}{}
		s.Values = append(s.Values, v)
	}
	return s, nil
}

// NewRangeSchema builds a numeric range schema over [lower, upper]
func NewRangeSchema(name string, storage StorageType, lower, upper decimal.Decimal) (*Schema, error) {
	if name == "" {
		return nil, errors.Config("parameter name is empty")
	}
	if !storage.Nullable() {
		return nil, errors.Config("parameter %s: numeric range needs int or float storage, got %s", name, storage)
	}
	if lower.GreaterThan(upper) {
		return nil, errors.Config("parameter %s: lower bound %s exceeds upper bound %s", name, lower, upper)
	}
	return &Schema{
		Name:    name,
		Storage: storage,
		Kind:    NumericRange,
		Lower:   lower,
		Upper:   upper,
	}, nil
}

// CastAndValidate turns a raw token into a validated parameter
func (s *Schema) CastAndValidate(name, raw string) (Parameter, error) {
	if name != s.Name {
		return Parameter{}, errors.SchemaMismatch("parameter %q does not match schema %q", name, s.Name)
	}
	v, err := s.parse(raw)
	if err != nil {
		return Parameter{}, err
	}
	p := Parameter{Name: name, Value: v}
	if err := s.Validate(p); err != nil {
		return Parameter{}, err
	}
	return p, nil
}

// Validate checks an already-typed parameter against the domain.
// Absent numeric values are always valid.
func (s *Schema) Validate(p Parameter) error {
	if p.Name != s.Name {
		return errors.SchemaMismatch("parameter %q does not match schema %q", p.Name, s.Name)
	}
	if p.Value.IsAbsent() {
		if s.Storage.Nullable() {
			return nil
		}
		return errors.Domain("parameter %s: string values cannot be absent", s.Name)
	}

	switch s.Kind {
	case Categorical, Ordinal:
		if _, ok := s.members[p.Value.Token()]; !ok {
			return errors.Domain("parameter %s: value %q not in domain", s.Name, p.Value.Token())
		}
	case NumericRange:
		d, ok := p.Value.Decimal()
		if !ok {
			return errors.Domain("parameter %s: %s value in numeric range", s.Name, p.Value.Kind())
		}
		if d.LessThan(s.Lower) || d.GreaterThan(s.Upper) {
			return errors.Domain("parameter %s: value %s outside [%s, %s]", s.Name, d, s.Lower, s.Upper)
		}
	default:
		return errors.Config("parameter %s: unknown value kind %q", s.Name, s.Kind)
	}
	return nil
}

// Contains reports whether a token is in a set domain
func (s *Schema) Contains(token string) bool {
	_, ok := s.members[token]
	return ok
}

func (s *Schema) parse(raw string) (Value, error) {
	if raw == MissingMarker && s.Storage.Nullable() {
		return Absent(), nil
	}
	switch s.Storage {
	case StorageString:
		return String(raw), nil
	case StorageInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, errors.Wrapf(errors.TypeDomain, err, "parameter %s: %q is not an integer", s.Name, raw)
		}
		return Int(i), nil
	case StorageFloat:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return Value{}, errors.Wrapf(errors.TypeDomain, err, "parameter %s: %q is not a number", s.Name, raw)
		}
		return Float(d), nil
	}
	return Value{}, errors.Config("parameter %s: unknown storage type %q", s.Name, s.Storage)
}

// Canonical returns the canonical token for raw under this schema's
// storage type, e.g. "0.50" becomes "0.5" for float storage.
func (s *Schema) Canonical(raw string) (string, error) {
	v, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return v.Token(), nil
}
