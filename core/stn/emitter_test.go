package stn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-stn/core/aggregate"
	"trajectory-stn/core/location"
	"trajectory-stn/core/param"
	"trajectory-stn/core/trajectory"
	"trajectory-stn/internal/errors"
)

func testTable(t *testing.T, stat aggregate.Statistic) *aggregate.Table {
	t.Helper()
	w, err := param.NewRangeSchema("w", param.StorageFloat, decimal.Zero, decimal.NewFromInt(100))
	require.NoError(t, err)
	enc, err := location.NewRangeEncoder(w, decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	book, err := location.NewCodebook([]*param.Schema{w}, []*location.Encoder{enc})
	require.NoError(t, err)

	c := func(id, iter int, w, q string, elite bool) trajectory.Configuration {
		return trajectory.Configuration{
			ID:         id,
			Iteration:  iter,
			Parameters: []param.Parameter{{Name: "w", Value: param.Float(decimal.RequireFromString(w))}},
			Quality:    decimal.RequireFromString(q),
			Elite:      elite,
		}
	}
	runs := []*trajectory.Run{
		{Index: 1, Name: "a", Iterations: []trajectory.Iteration{
			{Number: 1, Edges: []trajectory.Edge{
				{Origin: c(1, 1, "31", "10.25", false), Destination: c(2, 1, "72", "4.5", false)},
			}},
			{Number: 2, Edges: []trajectory.Edge{
				{Origin: c(2, 2, "72", "4.5", false), Destination: c(3, 2, "38", "2", true)},
			}},
		}},
		{Index: 2, Name: "b", Iterations: []trajectory.Iteration{
			{Number: 1, Edges: []trajectory.Edge{
				{Origin: c(1, 1, "35", "20", false), Destination: c(2, 1, "72", "3.5", true)},
			}},
		}},
	}

	agg, err := aggregate.New(book, stat, nil)
	require.NoError(t, err)
	table, err := agg.Aggregate(runs)
	require.NoError(t, err)
	return table
}

func TestEmitBaseLayout(t *testing.T) {
	em, err := NewEmitter(Options{Digits: 2})
	require.NoError(t, err)

	lines, err := em.Emit(testTable(t, aggregate.StatMin))
	require.NoError(t, err)

	want := []string{
		"Run Fitness1 Solution1 Fitness2 Solution2",
		"1 2.00 0300 3.50 0700",
		"1 3.50 0700 2.00 0300",
		"2 2.00 0300 3.50 0700",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Emit() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitFullLayout(t *testing.T) {
	em, err := NewEmitter(Options{Digits: 0, Columns: Columns{Elite: true, Iteration: true, Data: true}})
	require.NoError(t, err)

	lines, err := em.Emit(testTable(t, aggregate.StatMax))
	require.NoError(t, err)

	want := []string{
		"Run Fitness1 Solution1 Elite1 Iteration1 Data1 Fitness2 Solution2 Elite2 Iteration2 Data2",
		"1 20 0300 T 1 31 5 0700 T 1 72",
		"1 5 0700 T 2 72 20 0300 T 2 38",
		"2 20 0300 T 1 35 5 0700 T 1 72",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("Emit() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitMeanKeepsEdgeMultiplicity(t *testing.T) {
	em, err := NewEmitter(Options{Digits: 3, Columns: Columns{Elite: true}})
	require.NoError(t, err)

	lines, err := em.Emit(testTable(t, aggregate.StatMean))
	require.NoError(t, err)
	require.Len(t, lines, 4, "header plus one row per edge")
	assert.Equal(t, "1 10.750 0300 T 4.167 0700 T", lines[1])
}

func TestEmitterRejectsNegativeDigits(t *testing.T) {
	_, err := NewEmitter(Options{Digits: -1})
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestEmitterHeaderOrder(t *testing.T) {
	em, err := NewEmitter(Options{Columns: Columns{Data: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Run", "Fitness1", "Solution1", "Data1", "Fitness2", "Solution2", "Data2"}, em.Header())
}
