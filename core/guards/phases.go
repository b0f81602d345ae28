// Package guards - Runtime assertion guards for the conversion phases
// These assertions PANIC if violated. The pipeline turns the panic into an
// internal error, so a broken invariant never reaches the output.
package guards

import (
	"fmt"

	"trajectory-stn/core/aggregate"
	"trajectory-stn/core/trajectory"
)

// Phase is a completed conversion phase
type Phase int

const (
	PhaseNone Phase = iota
	PhaseParsed
	PhaseAggregated
	PhaseEmitted
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseParsed:
		return "parsed"
	case PhaseAggregated:
		return "aggregated"
	case PhaseEmitted:
		return "emitted"
	default:
		return "none"
	}
}

// PhaseEnforcer enforces the parse, aggregate, emit barrier order for one
// invocation
type PhaseEnforcer struct {
	phase Phase
	runs  int
	edges int
}

// NewPhaseEnforcer creates an enforcer
func NewPhaseEnforcer() *PhaseEnforcer {
	return &PhaseEnforcer{}
}

// Phase returns the last completed phase
func (e *PhaseEnforcer) Phase() Phase { return e.phase }

// MarkParsed marks every run as parsed
func (e *PhaseEnforcer) MarkParsed(runs []*trajectory.Run) {
	e.require(PhaseNone, PhaseParsed)
	for i, r := range runs {
		if r == nil {
			panic(fmt.Sprintf("INVARIANT VIOLATED: run %d missing after parsing", i+1))
		}
		e.edges += r.EdgeCount()
	}
	e.runs = len(runs)
	e.phase = PhaseParsed
}

// MarkAggregated marks the location table as complete. Every endpoint of
// every edge must be located and present in the table.
func (e *PhaseEnforcer) MarkAggregated(table *aggregate.Table) {
	e.require(PhaseParsed, PhaseAggregated)
	if table == nil {
		panic("INVARIANT VIOLATED: aggregation produced no table")
	}
	if len(table.Runs) != e.runs {
		panic(fmt.Sprintf("INVARIANT VIOLATED: %d runs parsed but %d aggregated", e.runs, len(table.Runs)))
	}
	for _, r := range table.Runs {
		for _, edge := range r.Edges() {
			AssertNodeInTable(table, edge.Origin)
			AssertNodeInTable(table, edge.Destination)
		}
	}
	e.phase = PhaseAggregated
}

// MarkEmitted marks the output as rendered: a header plus one row per edge
func (e *PhaseEnforcer) MarkEmitted(lines []string) {
	e.require(PhaseAggregated, PhaseEmitted)
	if len(lines) != e.edges+1 {
		panic(fmt.Sprintf("INVARIANT VIOLATED: %d edges but %d output lines", e.edges, len(lines)))
	}
	e.phase = PhaseEmitted
}

func (e *PhaseEnforcer) require(want, next Phase) {
	if e.phase != want {
		panic(fmt.Sprintf("INVARIANT VIOLATED: cannot mark %s after %s", next, e.phase))
	}
}

// AssertNodeInTable asserts a configuration is located and has a node
func AssertNodeInTable(table *aggregate.Table, c trajectory.Configuration) {
	if c.Location == "" {
		panic(fmt.Sprintf("ASSERTION FAILED: configuration %d of run %d not located", c.ID, c.Run))
	}
	if _, ok := table.Node(c.Location); !ok {
		panic(fmt.Sprintf("ASSERTION FAILED: location %s not in table", c.Location))
	}
}
