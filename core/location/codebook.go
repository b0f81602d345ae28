package location

import (
	"strings"

	"trajectory-stn/core/param"
	"trajectory-stn/internal/errors"
)

// Codebook pairs schemas with encoders. Its order is the column order of
// every location code.
type Codebook struct {
	schemas  []*param.Schema
	encoders []*Encoder
	width    int
}

// Fragment is one decoded slice of a location code
type Fragment struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Value string `json:"value"`
}

// NewCodebook validates the pairing. Names must match position by
// position, and set-kind schemas need a code for every domain value, plus
// the missing marker when their storage is numeric.
func NewCodebook(schemas []*param.Schema, encoders []*Encoder) (*Codebook, error) {
	if len(schemas) != len(encoders) {
		return nil, errors.SchemaMismatch("%d schemas but %d encoders", len(schemas), len(encoders))
	}
	if len(schemas) == 0 {
		return nil, errors.SchemaMismatch("codebook has no parameters")
	}

	seen := make(map[string]struct{}, len(schemas))
	width := 0
	for i, s := range schemas {
		enc := encoders[i]
		if s.Name != enc.Name() {
			return nil, errors.SchemaMismatch("position %d: schema %q paired with encoder %q", i, s.Name, enc.Name())
		}
		if _, dup := seen[s.Name]; dup {
			return nil, errors.SchemaMismatch("duplicate parameter %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		switch enc.Rule() {
		case RuleLookup:
			if s.Kind == param.NumericRange {
				return nil, errors.Encoding("parameter %s: lookup rule on a numeric range schema", s.Name)
			}
			for _, v := range s.Values {
				if _, ok := enc.table[v.Token()]; !ok {
					return nil, errors.Encoding("parameter %s: no code for domain value %q", s.Name, v.Token())
				}
			}
			if s.Storage.Nullable() {
				if _, ok := enc.table[param.MissingMarker]; !ok {
					return nil, errors.Encoding("parameter %s: no code for the missing marker %q", s.Name, param.MissingMarker)
				}
			}
		case RuleRange:
			if s.Kind != param.NumericRange {
				return nil, errors.Encoding("parameter %s: range rule on a %s schema", s.Name, s.Kind)
			}
		}
		width += enc.Width()
	}

	return &Codebook{
		schemas:  append([]*param.Schema(nil), schemas...),
		encoders: append([]*Encoder(nil), encoders...),
		width:    width,
	}, nil
}

// Len returns the number of parameters
func (c *Codebook) Len() int { return len(c.schemas) }

// Width returns the total code width
func (c *Codebook) Width() int { return c.width }

// Schema returns the schema at position i
func (c *Codebook) Schema(i int) *param.Schema { return c.schemas[i] }

// Encoder returns the encoder at position i
func (c *Codebook) Encoder(i int) *Encoder { return c.encoders[i] }

// Code concatenates the encoded fragments of params in codebook order
func (c *Codebook) Code(params []param.Parameter) (string, error) {
	if len(params) != len(c.schemas) {
		return "", errors.SchemaMismatch("%d parameters for a codebook of %d", len(params), len(c.schemas))
	}
	var b strings.Builder
	b.Grow(c.width)
	for i, p := range params {
		frag, err := c.encoders[i].Encode(p, c.schemas[i])
		if err != nil {
			return "", err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// Decode splits a code into per-parameter fragments by encoder width
func (c *Codebook) Decode(code string) ([]Fragment, error) {
	if len(code) != c.width {
		return nil, errors.Domain("code %q has width %d, codebook expects %d", code, len(code), c.width)
	}
	frags := make([]Fragment, 0, len(c.encoders))
	offset := 0
	for i, enc := range c.encoders {
		piece := code[offset : offset+enc.Width()]
		offset += enc.Width()

		value, err := enc.decode(piece, c.schemas[i])
		if err != nil {
			return nil, err
		}
		frags = append(frags, Fragment{Name: enc.Name(), Code: piece, Value: value})
	}
	return frags, nil
}
