package param

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-stn/internal/errors"
)

func mustRange(t *testing.T, name string, storage StorageType, lower, upper string) *Schema {
	t.Helper()
	s, err := NewRangeSchema(name, storage, decimal.RequireFromString(lower), decimal.RequireFromString(upper))
	require.NoError(t, err)
	return s
}

func TestCastAndValidate(t *testing.T) {
	algo, err := NewSetSchema("algorithm", StorageString, Categorical, []string{"as", "mmas", "acs"})
	require.NoError(t, err)
	ants := mustRange(t, "ants", StorageInt, "5", "100")
	alpha := mustRange(t, "alpha", StorageFloat, "0", "5")
	level, err := NewSetSchema("level", StorageInt, Ordinal, []string{"1", "2", "3"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		schema  *Schema
		param   string
		raw     string
		want    Value
		errType errors.Type
	}{
		{name: "categorical member", schema: algo, param: "algorithm", raw: "mmas", want: String("mmas")},
		{name: "categorical outsider", schema: algo, param: "algorithm", raw: "eas", errType: errors.TypeDomain},
		{name: "string never nullable", schema: algo, param: "algorithm", raw: "NA", errType: errors.TypeDomain},
		{name: "int in range", schema: ants, param: "ants", raw: "42", want: Int(42)},
		{name: "int at upper bound", schema: ants, param: "ants", raw: "100", want: Int(100)},
		{name: "int below range", schema: ants, param: "ants", raw: "4", errType: errors.TypeDomain},
		{name: "int not parseable", schema: ants, param: "ants", raw: "4.5", errType: errors.TypeDomain},
		{name: "int missing", schema: ants, param: "ants", raw: "NA", want: Absent()},
		{name: "float in range", schema: alpha, param: "alpha", raw: "2.50", want: Float(decimal.RequireFromString("2.5"))},
		{name: "float above range", schema: alpha, param: "alpha", raw: "5.01", errType: errors.TypeDomain},
		{name: "float missing", schema: alpha, param: "alpha", raw: "NA", want: Absent()},
		{name: "ordinal int member", schema: level, param: "level", raw: "2", want: Int(2)},
		{name: "ordinal missing allowed", schema: level, param: "level", raw: "NA", want: Absent()},
		{name: "name mismatch", schema: alpha, param: "beta", raw: "1", errType: errors.TypeSchemaMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.schema.CastAndValidate(tt.param, tt.raw)
			if tt.errType != "" {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.param, p.Name)
			assert.True(t, tt.want.Equal(p.Value), "want %s, got %s", tt.want, p.Value)
		})
	}
}

func TestSchemaConstruction(t *testing.T) {
	_, err := NewRangeSchema("alpha", StorageFloat, decimal.NewFromInt(5), decimal.NewFromInt(1))
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	_, err = NewRangeSchema("alpha", StorageString, decimal.Zero, decimal.NewFromInt(1))
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	_, err = NewSetSchema("algo", StorageString, Categorical, nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	_, err = NewSetSchema("rate", StorageFloat, Ordinal, []string{"1.0", "1"})
	assert.True(t, errors.IsType(err, errors.TypeConfig), "1.0 and 1 are the same float")

	_, err = NewSetSchema("algo", StorageString, NumericRange, []string{"a"})
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestParseCodes(t *testing.T) {
	st, err := ParseStorageType("f")
	require.NoError(t, err)
	assert.Equal(t, StorageFloat, st)

	kind, err := ParseDomainKind("i")
	require.NoError(t, err)
	assert.Equal(t, NumericRange, kind)

	kind, err = ParseDomainKind("o")
	require.NoError(t, err)
	assert.Equal(t, Ordinal, kind)

	_, err = ParseStorageType("bool")
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestValueTokens(t *testing.T) {
	assert.Equal(t, "NA", Absent().Token())
	assert.Equal(t, "7", Int(7).Token())
	assert.Equal(t, "0.25", Float(decimal.RequireFromString("0.250")).Token())
	assert.False(t, Int(1).Equal(Float(decimal.NewFromInt(1))))
	assert.True(t, Absent().Equal(Value{}))
}
