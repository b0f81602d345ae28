// Package trajectory reconstructs origin/destination configuration pairs
// from per-run tuning logs.
package trajectory

import (
	"strings"

	"github.com/shopspring/decimal"

	"trajectory-stn/core/location"
	"trajectory-stn/core/param"
	"trajectory-stn/internal/errors"
)

// Configuration is one sampled point in parameter space. Values are
// treated as immutable: retagging and locating return copies.
type Configuration struct {
	ID         int
	Run        int
	Iteration  int
	Parameters []param.Parameter
	Elite      bool
	Quality    decimal.Decimal

	// Location is empty until Locate is called
	Location string
}

// WithElite returns a copy with the elite flag set
func (c Configuration) WithElite(elite bool) Configuration {
	c.Elite = elite
	return c
}

// Locate returns a copy carrying the location code for the codebook
func (c Configuration) Locate(book *location.Codebook) (Configuration, error) {
	if c.Location != "" {
		return c, errors.Internal("configuration already located", nil).
			WithContext("id", c.ID).
			WithContext("run", c.Run)
	}
	code, err := book.Code(c.Parameters)
	if err != nil {
		return c, err
	}
	c.Location = code
	return c, nil
}

// Data renders the raw parameter tokens joined by commas
func (c Configuration) Data() string {
	tokens := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		tokens[i] = p.Value.Token()
	}
	return strings.Join(tokens, ",")
}

// Edge is an observed transition from origin to destination
type Edge struct {
	Origin      Configuration
	Destination Configuration
}

// Iteration is a sealed group of edges sharing an iteration number
type Iteration struct {
	Number int
	Edges  []Edge
}

// Run is the parsed trajectory of one independent tuning run
type Run struct {
	// Index is the 1-based run number in source order
	Index int
	// Name identifies the source, usually a file name
	Name       string
	Iterations []Iteration
}

// EdgeCount returns the number of edges across all iterations
func (r *Run) EdgeCount() int {
	n := 0
	for _, it := range r.Iterations {
		n += len(it.Edges)
	}
	return n
}

// Edges returns every edge in iteration then parse order
func (r *Run) Edges() []Edge {
	out := make([]Edge, 0, r.EdgeCount())
	for _, it := range r.Iterations {
		out = append(out, it.Edges...)
	}
	return out
}

// Walk visits every edge in iteration then parse order
func (r *Run) Walk(fn func(it *Iteration, e *Edge) error) error {
	for i := range r.Iterations {
		it := &r.Iterations[i]
		for j := range it.Edges {
			if err := fn(it, &it.Edges[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Locate returns a copy of the run with every configuration located
func (r *Run) Locate(book *location.Codebook) (*Run, error) {
	out := &Run{Index: r.Index, Name: r.Name, Iterations: make([]Iteration, len(r.Iterations))}
	for i, it := range r.Iterations {
		edges := make([]Edge, len(it.Edges))
		for j, e := range it.Edges {
			origin, err := e.Origin.Locate(book)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeOf(err), err, "run %s iteration %d edge %d origin", r.Name, it.Number, j+1)
			}
			dest, err := e.Destination.Locate(book)
			if err != nil {
				return nil, errors.Wrapf(errors.TypeOf(err), err, "run %s iteration %d edge %d destination", r.Name, it.Number, j+1)
			}
			edges[j] = Edge{Origin: origin, Destination: dest}
		}
		out.Iterations[i] = Iteration{Number: it.Number, Edges: edges}
	}
	return out, nil
}
