// Package schemafile loads parameter schemas and their encoders from
// definition files and builds the codebook the pipeline runs on.
package schemafile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"trajectory-stn/core/location"
	"trajectory-stn/core/param"
	"trajectory-stn/internal/errors"
)

// Encoding rules
const (
	RuleTable = "table"
	RuleIndex = "index"
	RuleRange = "range"
)

// Definition is one parameter as written in a schema file, before typing
type Definition struct {
	Name   string
	Type   string
	Kind   string
	Values []string
	Lower  string
	Upper  string

	Encoding EncodingDefinition
}

// EncodingDefinition describes the encoder of a parameter. An empty Rule
// means "index" for set kinds and "range" for numeric ranges.
type EncodingDefinition struct {
	Rule        string
	Table       map[string]string
	BucketWidth string
	Digits      int
}

// Load reads a schema file, choosing the format by extension
func Load(path string) (*location.Codebook, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Input("failed to read schema file "+path, err)
	}

	var defs []Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		defs, err = ParseHCL(src, path)
	case ".yaml", ".yml":
		defs, err = ParseYAML(src)
	default:
		return nil, errors.Config("unsupported schema file extension %q (want .hcl, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, err
	}
	return Build(defs)
}

// Build types every definition and pairs it with its encoder in file order
func Build(defs []Definition) (*location.Codebook, error) {
	schemas := make([]*param.Schema, 0, len(defs))
	encoders := make([]*location.Encoder, 0, len(defs))
	for _, def := range defs {
		schema, err := def.schema()
		if err != nil {
			return nil, err
		}
		enc, err := def.encoder(schema)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
		encoders = append(encoders, enc)
	}
	return location.NewCodebook(schemas, encoders)
}

func (d Definition) schema() (*param.Schema, error) {
	storage, err := param.ParseStorageType(d.Type)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "parameter %s", d.Name)
	}
	kind, err := param.ParseDomainKind(d.Kind)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "parameter %s", d.Name)
	}

	if kind != param.NumericRange {
		return param.NewSetSchema(d.Name, storage, kind, d.Values)
	}
	lower, err := decimal.NewFromString(d.Lower)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "parameter %s: bad lower bound %q", d.Name, d.Lower)
	}
	upper, err := decimal.NewFromString(d.Upper)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "parameter %s: bad upper bound %q", d.Name, d.Upper)
	}
	return param.NewRangeSchema(d.Name, storage, lower, upper)
}

func (d Definition) encoder(schema *param.Schema) (*location.Encoder, error) {
	rule := strings.ToLower(d.Encoding.Rule)
	if rule == "" {
		switch {
		case schema.Kind == param.NumericRange:
			rule = RuleRange
		case len(d.Encoding.Table) > 0:
			rule = RuleTable
		default:
			rule = RuleIndex
		}
	}

	switch rule {
	case RuleTable:
		table := make(map[string]string, len(d.Encoding.Table)+1)
		keys := make(map[string]string, len(d.Encoding.Table))
		width := 0
		for raw, code := range d.Encoding.Table {
			token, err := schema.Canonical(raw)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeEncoding, err, "parameter %s: bad table key %q", d.Name, raw)
			}
			if prev, dup := keys[token]; dup {
				return nil, errors.Encoding("parameter %s: table keys %q and %q are the same value %q", d.Name, prev, raw, token)
			}
			keys[token] = raw
			table[token] = code
			width = len(code)
		}
		// Numeric set values may be missing; unless the table says otherwise
		// they encode as placeholders
		if _, ok := table[param.MissingMarker]; !ok && schema.Storage.Nullable() && width > 0 {
			table[param.MissingMarker] = strings.Repeat(location.Placeholder, width)
		}
		return location.NewLookupEncoder(d.Name, table)
	case RuleIndex:
		return location.NewIndexEncoder(schema)
	case RuleRange:
		width, err := decimal.NewFromString(d.Encoding.BucketWidth)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeEncoding, err, "parameter %s: bad bucket width %q", d.Name, d.Encoding.BucketWidth)
		}
		return location.NewRangeEncoder(schema, width, d.Encoding.Digits)
	}
	return nil, errors.Encoding("parameter %s: unknown encoding rule %q", d.Name, d.Encoding.Rule)
}
