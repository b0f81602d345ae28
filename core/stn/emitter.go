// Package stn renders aggregated trajectories as an STN edge list.
package stn

import (
	"strconv"
	"strings"

	"trajectory-stn/core/aggregate"
	"trajectory-stn/core/trajectory"
	"trajectory-stn/internal/errors"
)

// Column names a per-endpoint output column
type Column string

const (
	ColumnFitness   Column = "Fitness"
	ColumnSolution  Column = "Solution"
	ColumnElite     Column = "Elite"
	ColumnIteration Column = "Iteration"
	ColumnData      Column = "Data"
)

// ColumnRun is the leading column
const ColumnRun = "Run"

// Columns selects the optional per-endpoint columns
type Columns struct {
	Elite     bool `json:"elite"`
	Iteration bool `json:"iteration"`
	Data      bool `json:"data"`
}

// Options controls rendering
type Options struct {
	// Digits is the number of decimal digits for Fitness; 0 renders integers
	Digits int `json:"digits"`

	Columns Columns `json:"columns"`
}

// Emitter renders STN rows
type Emitter struct {
	digits int32
	layout []Column
}

// NewEmitter validates the options and fixes the column layout
func NewEmitter(opts Options) (*Emitter, error) {
	if opts.Digits < 0 {
		return nil, errors.Config("significant digits %d < 0", opts.Digits)
	}
	layout := []Column{ColumnFitness, ColumnSolution}
	if opts.Columns.Elite {
		layout = append(layout, ColumnElite)
	}
	if opts.Columns.Iteration {
		layout = append(layout, ColumnIteration)
	}
	if opts.Columns.Data {
		layout = append(layout, ColumnData)
	}
	return &Emitter{digits: int32(opts.Digits), layout: layout}, nil
}

// Header returns the column names, endpoint 1 group before endpoint 2
func (e *Emitter) Header() []string {
	cols := []string{ColumnRun}
	for _, suffix := range []string{"1", "2"} {
		for _, c := range e.layout {
			cols = append(cols, string(c)+suffix)
		}
	}
	return cols
}

// Emit walks runs, iterations and edges in order and renders one row per
// edge. Node quality and elite values come from the table; nothing in the
// table is changed.
func (e *Emitter) Emit(table *aggregate.Table) ([]string, error) {
	lines := []string{strings.Join(e.Header(), " ")}
	for _, run := range table.Runs {
		runField := strconv.Itoa(run.Index)
		err := run.Walk(func(_ *trajectory.Iteration, edge *trajectory.Edge) error {
			row := []string{runField}
			for _, c := range []trajectory.Configuration{edge.Origin, edge.Destination} {
				fields, err := e.endpoint(table, c)
				if err != nil {
					return err
				}
				row = append(row, fields...)
			}
			lines = append(lines, strings.Join(row, " "))
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(errors.TypeOf(err), err, "run %s", run.Name)
		}
	}
	return lines, nil
}

func (e *Emitter) endpoint(table *aggregate.Table, c trajectory.Configuration) ([]string, error) {
	node, ok := table.Node(c.Location)
	if !ok {
		return nil, errors.Internal("no node for location", nil).
			WithContext("location", c.Location).
			WithContext("id", c.ID)
	}

	fields := make([]string, 0, len(e.layout))
	for _, col := range e.layout {
		switch col {
		case ColumnFitness:
			fields = append(fields, node.Quality.StringFixed(e.digits))
		case ColumnSolution:
			fields = append(fields, node.Location)
		case ColumnElite:
			fields = append(fields, eliteFlag(node.Elite))
		case ColumnIteration:
			fields = append(fields, strconv.Itoa(c.Iteration))
		case ColumnData:
			fields = append(fields, c.Data())
		}
	}
	return fields, nil
}

func eliteFlag(elite bool) string {
	if elite {
		return "T"
	}
	return "F"
}
