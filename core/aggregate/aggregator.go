// Package aggregate merges configurations that share a location code into
// STN nodes.
package aggregate

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trajectory-stn/core/determinism"
	"trajectory-stn/core/location"
	"trajectory-stn/core/trajectory"
	"trajectory-stn/internal/errors"
)

// Statistic selects the node quality from its members' qualities
type Statistic string

const (
	StatMin  Statistic = "min"
	StatMax  Statistic = "max"
	StatMean Statistic = "mean"
)

// ParseStatistic validates a statistic name
func ParseStatistic(s string) (Statistic, error) {
	switch st := Statistic(strings.ToLower(strings.TrimSpace(s))); st {
	case StatMin, StatMax, StatMean:
		return st, nil
	}
	return "", errors.Config("unsupported quality statistic %q (want min, max or mean)", s)
}

// Node is one STN node
type Node struct {
	Location string
	Quality  decimal.Decimal
	Elite    bool
	Members  int
}

// Table is the location lookup built by one aggregation. It is owned by a
// single pipeline invocation and never shared between invocations.
type Table struct {
	// Runs are the input runs with every configuration located
	Runs []*trajectory.Run

	nodes *determinism.OrderedMap[string, Node]
}

// Node looks up a node by location code
func (t *Table) Node(code string) (Node, bool) {
	return t.nodes.Get(code)
}

// Nodes returns every node in first-seen order
func (t *Table) Nodes() []Node {
	out := make([]Node, 0, t.nodes.Len())
	t.nodes.Range(func(_ string, n Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Len returns the number of nodes
func (t *Table) Len() int { return t.nodes.Len() }

// Aggregator groups configurations by location code
type Aggregator struct {
	book   *location.Codebook
	stat   Statistic
	logger *zap.Logger
}

// New creates an aggregator. An unknown statistic fails here, before any
// record is touched.
func New(book *location.Codebook, stat Statistic, logger *zap.Logger) (*Aggregator, error) {
	stat, err := ParseStatistic(string(stat))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{book: book, stat: stat, logger: logger}, nil
}

// group accumulates one location's members
type group struct {
	qualities []decimal.Decimal
	elite     bool
}

// Aggregate locates every configuration of every run, groups them by code
// and reduces each group to a node.
func (a *Aggregator) Aggregate(runs []*trajectory.Run) (*Table, error) {
	groups := determinism.NewOrderedMap[string, *group]()
	add := func(c trajectory.Configuration) {
		g, ok := groups.Get(c.Location)
		if !ok {
			g = &group{}
			groups.Set(c.Location, g)
		}
		g.qualities = append(g.qualities, c.Quality)
		g.elite = g.elite || c.Elite
	}

	located := make([]*trajectory.Run, 0, len(runs))
	for _, run := range runs {
		lr, err := run.Locate(a.book)
		if err != nil {
			return nil, err
		}
		for _, e := range lr.Edges() {
			add(e.Origin)
			add(e.Destination)
		}
		located = append(located, lr)
	}

	nodes := determinism.NewOrderedMap[string, Node]()
	groups.Range(func(code string, g *group) bool {
		nodes.Set(code, Node{
			Location: code,
			Quality:  reduce(a.stat, g.qualities),
			Elite:    g.elite,
			Members:  len(g.qualities),
		})
		return true
	})

	a.logger.Debug("aggregated locations",
		zap.Int("runs", len(located)),
		zap.Int("nodes", nodes.Len()),
		zap.String("statistic", string(a.stat)),
	)
	return &Table{Runs: located, nodes: nodes}, nil
}

// reduce applies the statistic to a non-empty slice
func reduce(stat Statistic, qs []decimal.Decimal) decimal.Decimal {
	switch stat {
	case StatMin:
		return decimal.Min(qs[0], qs[1:]...)
	case StatMax:
		return decimal.Max(qs[0], qs[1:]...)
	default:
		return decimal.Avg(qs[0], qs[1:]...)
	}
}
