// Package pipeline wires parsing, aggregation and emission into the
// single entry point used by the CLI.
//
// Phases are strict barriers: every run is parsed before aggregation
// starts, and aggregation completes before the first row is emitted.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trajectory-stn/core/aggregate"
	"trajectory-stn/core/guards"
	"trajectory-stn/core/location"
	"trajectory-stn/core/stn"
	"trajectory-stn/core/trajectory"
	"trajectory-stn/internal/errors"
)

// Enumerator lists run identifiers in a directory filtered by extension
type Enumerator interface {
	List(ctx context.Context, dir, ext string) ([]string, error)
}

// LineReader returns the ordered lines of one run
type LineReader interface {
	ReadLines(ctx context.Context, id string) ([]string, error)
}

// LineWriter persists the ordered output lines
type LineWriter interface {
	WriteLines(ctx context.Context, lines []string) error
}

// RunInput is the raw text of one run
type RunInput struct {
	Name  string
	Lines []string
}

// Options configures one pipeline
type Options struct {
	Parser    trajectory.ParserConfig
	Statistic aggregate.Statistic
	Output    stn.Options

	// Workers bounds parallel run parsing; values below 1 mean 1
	Workers int
}

// Result is the outcome of one conversion
type Result struct {
	ID    string
	Runs  int
	Edges int
	Nodes int
	Lines []string
}

// Pipeline converts trajectory runs into STN lines
type Pipeline struct {
	parser     *trajectory.Parser
	aggregator *aggregate.Aggregator
	emitter    *stn.Emitter
	workers    int
	logger     *zap.Logger
}

// New validates every option before any record is read
func New(book *location.Codebook, opts Options, logger *zap.Logger) (*Pipeline, error) {
	if book == nil {
		return nil, errors.Config("pipeline needs a codebook")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parser, err := trajectory.NewParser(book, opts.Parser, logger)
	if err != nil {
		return nil, err
	}
	aggregator, err := aggregate.New(book, opts.Statistic, logger)
	if err != nil {
		return nil, err
	}
	emitter, err := stn.NewEmitter(opts.Output)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		parser:     parser,
		aggregator: aggregator,
		emitter:    emitter,
		workers:    workers,
		logger:     logger,
	}, nil
}

// Convert runs the three phases over in-memory runs. On any failure the
// result is empty and the error says why; a partial result is never
// returned.
func (p *Pipeline) Convert(ctx context.Context, inputs []RunInput) (result *Result, err error) {
	id := uuid.NewString()
	logger := p.logger.With(zap.String("invocation", id))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal("conversion panicked", fmt.Errorf("%v", r))
		}
		if err != nil {
			logger.Error("conversion failed",
				zap.String("kind", string(errors.TypeOf(err))),
				zap.Error(err),
			)
			result = &Result{ID: id}
		}
	}()

	phases := guards.NewPhaseEnforcer()

	runs, err := p.parseAll(ctx, inputs)
	if err != nil {
		return nil, err
	}
	phases.MarkParsed(runs)

	table, err := p.aggregator.Aggregate(runs)
	if err != nil {
		return nil, err
	}
	phases.MarkAggregated(table)

	lines, err := p.emitter.Emit(table)
	if err != nil {
		return nil, err
	}
	phases.MarkEmitted(lines)

	result = &Result{ID: id, Runs: len(runs), Nodes: table.Len(), Lines: lines}
	for _, r := range runs {
		result.Edges += r.EdgeCount()
	}
	logger.Info("conversion complete",
		zap.Int("runs", result.Runs),
		zap.Int("edges", result.Edges),
		zap.Int("nodes", result.Nodes),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// parseAll parses runs on up to p.workers goroutines. Runs share no state,
// and each result lands at its input index so order never depends on
// scheduling.
func (p *Pipeline) parseAll(ctx context.Context, inputs []RunInput) ([]*trajectory.Run, error) {
	runs := make([]*trajectory.Run, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Internal("parsing cancelled", err)
			}
			run, err := p.parser.Parse(i+1, in.Name, in.Lines)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ConvertDir enumerates, reads, converts and writes. Nothing is written
// when any step fails.
func (p *Pipeline) ConvertDir(ctx context.Context, enum Enumerator, reader LineReader, writer LineWriter, dir, ext string) (*Result, error) {
	ids, err := enum.List(ctx, dir, ext)
	if err != nil {
		return &Result{}, err
	}
	if len(ids) == 0 {
		return &Result{}, errors.Input(fmt.Sprintf("no %q files in %s", ext, dir), nil)
	}

	inputs := make([]RunInput, 0, len(ids))
	for _, id := range ids {
		lines, err := reader.ReadLines(ctx, id)
		if err != nil {
			return &Result{}, err
		}
		inputs = append(inputs, RunInput{Name: id, Lines: lines})
	}

	result, err := p.Convert(ctx, inputs)
	if err != nil {
		return result, err
	}
	if err := writer.WriteLines(ctx, result.Lines); err != nil {
		return &Result{ID: result.ID}, err
	}
	return result, nil
}
