package schemafile

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"trajectory-stn/internal/errors"
)

type yamlFile struct {
	Parameters []yamlParameter `yaml:"parameters"`
}

type yamlParameter struct {
	Name     string        `yaml:"name"`
	Type     scalar        `yaml:"type"`
	Kind     scalar        `yaml:"kind"`
	Values   []scalar      `yaml:"values"`
	Lower    scalar        `yaml:"lower"`
	Upper    scalar        `yaml:"upper"`
	Encoding *yamlEncoding `yaml:"encoding"`
}

type yamlEncoding struct {
	Rule        scalar    `yaml:"rule"`
	Table       codeTable `yaml:"table"`
	BucketWidth scalar    `yaml:"bucket_width"`
	Digits      int       `yaml:"digits"`
}

// scalar keeps the literal text of a YAML scalar so "0.50" stays "0.50"
// and "1" stays a string
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

// codeTable maps raw domain values to codes, rejecting duplicate keys
type codeTable map[string]string

func (t *codeTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: table must be a mapping", node.Line)
	}
	out := make(codeTable, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: table entries must be scalars", key.Line)
		}
		if _, dup := out[key.Value]; dup {
			return fmt.Errorf("line %d: duplicate table key %q", key.Line, key.Value)
		}
		out[key.Value] = val.Value
	}
	*t = out
	return nil
}

// ParseYAML reads the parameters list in document order:
//
//	parameters:
//	  - name: alpha
//	    type: float
//	    kind: range
//	    lower: 0
//	    upper: 5
//	    encoding:
//	      bucket_width: 0.5
//	      digits: 2
func ParseYAML(src []byte) ([]Definition, error) {
	var file yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to parse schema file", err)
	}

	defs := make([]Definition, 0, len(file.Parameters))
	for i, p := range file.Parameters {
		if p.Name == "" {
			return nil, errors.Config("parameter %d has no name", i+1)
		}
		def := Definition{
			Name:  p.Name,
			Type:  string(p.Type),
			Kind:  string(p.Kind),
			Lower: string(p.Lower),
			Upper: string(p.Upper),
		}
		for _, v := range p.Values {
			def.Values = append(def.Values, string(v))
		}
		if p.Encoding != nil {
			def.Encoding = EncodingDefinition{
				Rule:        string(p.Encoding.Rule),
				Table:       p.Encoding.Table,
				BucketWidth: string(p.Encoding.BucketWidth),
				Digits:      p.Encoding.Digits,
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}
