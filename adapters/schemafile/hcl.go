package schemafile

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"trajectory-stn/internal/errors"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "parameter", LabelNames: []string{"name"}},
	},
}

var parameterSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "kind", Required: true},
		{Name: "values"},
		{Name: "lower"},
		{Name: "upper"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "encoding"},
	},
}

var encodingSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "rule"},
		{Name: "table"},
		{Name: "bucket_width"},
		{Name: "digits"},
	},
}

// ParseHCL reads parameter blocks in declaration order:
//
//	parameter "alpha" {
//	  type  = "float"
//	  kind  = "range"
//	  lower = 0
//	  upper = 5
//	  encoding {
//	    bucket_width = 0.5
//	    digits       = 2
//	  }
//	}
func ParseHCL(src []byte, filename string) ([]Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.TypeConfig, "failed to parse schema file", diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.TypeConfig, "invalid schema file", diags)
	}

	defs := make([]Definition, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		def, err := parseParameterBlock(block)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseParameterBlock(block *hcl.Block) (Definition, error) {
	def := Definition{Name: block.Labels[0]}

	content, diags := block.Body.Content(parameterSchema)
	if diags.HasErrors() {
		return def, errors.Wrapf(errors.TypeConfig, diags, "parameter %s", def.Name)
	}

	attrs := attributeReader{name: def.Name, attrs: content.Attributes}
	def.Type = attrs.text("type")
	def.Kind = attrs.text("kind")
	def.Values = attrs.list("values")
	def.Lower = attrs.text("lower")
	def.Upper = attrs.text("upper")

	if len(content.Blocks) > 1 {
		return def, errors.Config("parameter %s: at most one encoding block", def.Name)
	}
	for _, enc := range content.Blocks {
		encContent, diags := enc.Body.Content(encodingSchema)
		if diags.HasErrors() {
			return def, errors.Wrapf(errors.TypeConfig, diags, "parameter %s encoding", def.Name)
		}
		encAttrs := attributeReader{name: def.Name, attrs: encContent.Attributes}
		def.Encoding.Rule = encAttrs.text("rule")
		def.Encoding.Table = encAttrs.table("table")
		def.Encoding.BucketWidth = encAttrs.text("bucket_width")
		def.Encoding.Digits = encAttrs.integer("digits")
		if encAttrs.err != nil {
			return def, encAttrs.err
		}
	}
	return def, attrs.err
}

// attributeReader evaluates literal attributes and keeps the first error
type attributeReader struct {
	name  string
	attrs hcl.Attributes
	err   error
}

func (r *attributeReader) value(key string) (SafeValue, bool) {
	attr, ok := r.attrs[key]
	if !ok || r.err != nil {
		return SafeValue{}, false
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		r.err = errors.Wrapf(errors.TypeConfig, diags, "parameter %s: %s must be a literal", r.name, key)
		return SafeValue{}, false
	}
	safe := CtyToSafe(val)
	if !safe.IsKnown || safe.IsNull {
		r.err = errors.Config("parameter %s: %s has no value", r.name, key)
		return SafeValue{}, false
	}
	return safe, true
}

func (r *attributeReader) text(key string) string {
	v, ok := r.value(key)
	if !ok {
		return ""
	}
	s, ok := v.Text()
	if !ok {
		r.err = errors.Config("parameter %s: %s must be a string or number", r.name, key)
	}
	return s
}

func (r *attributeReader) list(key string) []string {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	items, ok := v.Value.([]SafeValue)
	if !ok {
		r.err = errors.Config("parameter %s: %s must be a list", r.name, key)
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.Text()
		if !ok {
			r.err = errors.Config("parameter %s: %s elements must be strings or numbers", r.name, key)
			return nil
		}
		out = append(out, s)
	}
	return out
}

func (r *attributeReader) table(key string) map[string]string {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	entries, ok := v.Value.(map[string]SafeValue)
	if !ok {
		r.err = errors.Config("parameter %s: %s must be a map", r.name, key)
		return nil
	}
	out := make(map[string]string, len(entries))
	for k, entry := range entries {
		s, ok := entry.Text()
		if !ok {
			r.err = errors.Config("parameter %s: %s codes must be strings", r.name, key)
			return nil
		}
		out[k] = s
	}
	return out
}

func (r *attributeReader) integer(key string) int {
	v, ok := r.value(key)
	if !ok {
		return 0
	}
	n, ok := v.Int()
	if !ok {
		r.err = errors.Config("parameter %s: %s must be a whole number", r.name, key)
	}
	return n
}
