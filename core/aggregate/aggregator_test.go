package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-stn/core/location"
	"trajectory-stn/core/param"
	"trajectory-stn/core/trajectory"
	"trajectory-stn/internal/errors"
)

func testBook(t *testing.T) *location.Codebook {
	t.Helper()
	w, err := param.NewRangeSchema("w", param.StorageFloat, decimal.Zero, decimal.NewFromInt(100))
	require.NoError(t, err)
	enc, err := location.NewRangeEncoder(w, decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	book, err := location.NewCodebook([]*param.Schema{w}, []*location.Encoder{enc})
	require.NoError(t, err)
	return book
}

func cfg(id int, w string, quality string, elite bool) trajectory.Configuration {
	return trajectory.Configuration{
		ID:         id,
		Parameters: []param.Parameter{{Name: "w", Value: param.Float(decimal.RequireFromString(w))}},
		Quality:    decimal.RequireFromString(quality),
		Elite:      elite,
	}
}

// two runs: 31/35/38 share bucket 30, 72 sits alone in bucket 70
func testRuns() []*trajectory.Run {
	return []*trajectory.Run{
		{Index: 1, Name: "a", Iterations: []trajectory.Iteration{
			{Number: 1, Edges: []trajectory.Edge{
				{Origin: cfg(1, "31", "10", false), Destination: cfg(2, "72", "4", false)},
			}},
		}},
		{Index: 2, Name: "b", Iterations: []trajectory.Iteration{
			{Number: 1, Edges: []trajectory.Edge{
				{Origin: cfg(1, "35", "20", false), Destination: cfg(2, "38", "6", true)},
			}},
		}},
	}
}

func TestAggregateStatistics(t *testing.T) {
	tests := []struct {
		stat    Statistic
		quality string
	}{
		{stat: StatMin, quality: "6"},
		{stat: StatMax, quality: "20"},
		{stat: StatMean, quality: "12"},
	}
	for _, tt := range tests {
		t.Run(string(tt.stat), func(t *testing.T) {
			agg, err := New(testBook(t), tt.stat, nil)
			require.NoError(t, err)

			table, err := agg.Aggregate(testRuns())
			require.NoError(t, err)
			require.Equal(t, 2, table.Len())

			node, ok := table.Node("0300")
			require.True(t, ok)
			assert.True(t, node.Quality.Equal(decimal.RequireFromString(tt.quality)), "got %s", node.Quality)
			assert.True(t, node.Elite, "one elite member makes the node elite")
			assert.Equal(t, 3, node.Members)

			lone, ok := table.Node("0700")
			require.True(t, ok)
			assert.True(t, lone.Quality.Equal(decimal.NewFromInt(4)))
			assert.False(t, lone.Elite)
		})
	}
}

func TestAggregateBounds(t *testing.T) {
	book := testBook(t)
	results := make(map[Statistic]*Table)
	for _, stat := range []Statistic{StatMin, StatMax, StatMean} {
		agg, err := New(book, stat, nil)
		require.NoError(t, err)
		table, err := agg.Aggregate(testRuns())
		require.NoError(t, err)
		results[stat] = table
	}

	for _, node := range results[StatMean].Nodes() {
		lo, _ := results[StatMin].Node(node.Location)
		hi, _ := results[StatMax].Node(node.Location)
		assert.True(t, lo.Quality.LessThanOrEqual(node.Quality), "min <= mean at %s", node.Location)
		assert.True(t, node.Quality.LessThanOrEqual(hi.Quality), "mean <= max at %s", node.Location)
	}
}

func TestAggregateKeepsFirstSeenOrderAndLocatesRuns(t *testing.T) {
	agg, err := New(testBook(t), StatMean, nil)
	require.NoError(t, err)

	runs := testRuns()
	table, err := agg.Aggregate(runs)
	require.NoError(t, err)

	nodes := table.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "0300", nodes[0].Location)
	assert.Equal(t, "0700", nodes[1].Location)

	require.Len(t, table.Runs, 2)
	assert.Equal(t, "0700", table.Runs[0].Iterations[0].Edges[0].Destination.Location)
	assert.Empty(t, runs[0].Iterations[0].Edges[0].Destination.Location, "inputs stay unlocated")
}

func TestAggregateIsScopedToOneInvocation(t *testing.T) {
	agg, err := New(testBook(t), StatMax, nil)
	require.NoError(t, err)

	first, err := agg.Aggregate(testRuns())
	require.NoError(t, err)
	second, err := agg.Aggregate(testRuns()[:1])
	require.NoError(t, err)

	assert.Equal(t, 2, first.Len())
	node, ok := second.Node("0300")
	require.True(t, ok)
	assert.Equal(t, 1, node.Members, "no state leaks between invocations")
}

func TestStatisticValidation(t *testing.T) {
	_, err := New(testBook(t), Statistic("median"), nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	st, err := ParseStatistic(" MEAN ")
	require.NoError(t, err)
	assert.Equal(t, StatMean, st)
}
