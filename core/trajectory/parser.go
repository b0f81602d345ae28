package trajectory

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trajectory-stn/core/location"
	"trajectory-stn/internal/errors"
)

// ParserConfig controls the record grammar
type ParserConfig struct {
	// Separator splits a line into its origin and destination halves
	Separator string `json:"separator"`

	// EliteMarker is the single-letter marker of elite configurations
	EliteMarker string `json:"elite_marker"`
}

// DefaultParserConfig returns the default grammar
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Separator:   "|",
		EliteMarker: "E",
	}
}

// Validate checks the grammar before any line is read
func (c ParserConfig) Validate() error {
	if c.Separator == "" || strings.TrimSpace(c.Separator) == "" {
		return errors.Config("field separator must be a non-whitespace string, got %q", c.Separator)
	}
	if utf8.RuneCountInString(c.EliteMarker) != 1 {
		return errors.Config("elite marker must be a single character, got %q", c.EliteMarker)
	}
	if strings.Contains(c.EliteMarker, c.Separator) || unicode.IsSpace([]rune(c.EliteMarker)[0]) {
		return errors.Config("elite marker %q collides with the record grammar", c.EliteMarker)
	}
	return nil
}

// fixed fields per half besides the parameters: id, elite, iteration, quality
const fixedFields = 4

type parseState int

const (
	stateSkipHeader parseState = iota
	stateInIteration
	stateDone
)

// Parser reconstructs the iteration groups of one run. It holds no state
// between calls, so one Parser may serve many goroutines.
type Parser struct {
	book   *location.Codebook
	config ParserConfig
	logger *zap.Logger
}

// NewParser creates a parser for records shaped by the codebook's schemas
func NewParser(book *location.Codebook, config ParserConfig, logger *zap.Logger) (*Parser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{book: book, config: config, logger: logger}, nil
}

// runParse is the state of one Parse call
type runParse struct {
	state   parseState
	counter int
	open    Iteration
	run     *Run
}

// seal closes the open iteration and starts the next one
func (rp *runParse) seal(next int) {
	if len(rp.open.Edges) > 0 {
		rp.run.Iterations = append(rp.run.Iterations, rp.open)
	}
	rp.counter = next
	rp.open = Iteration{Number: next}
}

// Parse consumes the lines of one run. Line 0 is a header. Any malformed
// line aborts the whole run. Destinations of the final iteration come back
// elite regardless of their markers.
func (p *Parser) Parse(index int, name string, lines []string) (*Run, error) {
	rp := &runParse{
		state: stateSkipHeader,
		run:   &Run{Index: index, Name: name},
	}

	for i, line := range lines {
		if rp.state == stateSkipHeader {
			rp.state = stateInIteration
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		edge, err := p.parseLine(index, line)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeOf(err), err, "run %s line %d", name, i+1).
				WithContext("run", name).
				WithContext("line", i+1)
		}

		if edge.Origin.Iteration > rp.counter {
			rp.seal(edge.Origin.Iteration)
		}
		rp.open.Edges = append(rp.open.Edges, edge)
	}

	for i, e := range rp.open.Edges {
		rp.open.Edges[i].Destination = e.Destination.WithElite(true)
	}
	rp.seal(rp.counter)
	rp.state = stateDone

	p.logger.Debug("parsed run",
		zap.String("run", name),
		zap.Int("iterations", len(rp.run.Iterations)),
		zap.Int("edges", rp.run.EdgeCount()),
	)
	return rp.run, nil
}

func (p *Parser) parseLine(run int, line string) (Edge, error) {
	halves := strings.Split(line, p.config.Separator)
	if len(halves) != 2 {
		return Edge{}, errors.RecordShape("expected 2 halves split by %q, got %d", p.config.Separator, len(halves))
	}
	origin, err := p.parseHalf(run, halves[0])
	if err != nil {
		return Edge{}, errors.Wrapf(errors.TypeOf(err), err, "origin")
	}
	dest, err := p.parseHalf(run, halves[1])
	if err != nil {
		return Edge{}, errors.Wrapf(errors.TypeOf(err), err, "destination")
	}
	return Edge{Origin: origin, Destination: dest}, nil
}

// parseHalf reads "id param_1..param_k elite iteration quality"
func (p *Parser) parseHalf(run int, half string) (Configuration, error) {
	k := p.book.Len()
	fields := strings.Fields(half)
	if len(fields) != fixedFields+k {
		return Configuration{}, errors.RecordShape("expected %d fields, got %d", fixedFields+k, len(fields))
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Configuration{}, errors.Wrapf(errors.TypeRecordShape, err, "bad id %q", fields[0])
	}

	cfg := Configuration{ID: id, Run: run}
	for i := 0; i < k; i++ {
		schema := p.book.Schema(i)
		prm, err := schema.CastAndValidate(schema.Name, fields[1+i])
		if err != nil {
			return Configuration{}, err
		}
		cfg.Parameters = append(cfg.Parameters, prm)
	}

	marker := fields[1+k]
	if utf8.RuneCountInString(marker) != 1 {
		return Configuration{}, errors.RecordShape("elite marker %q is not a single character", marker)
	}
	cfg.Elite = marker == p.config.EliteMarker

	cfg.Iteration, err = strconv.Atoi(fields[2+k])
	if err != nil {
		return Configuration{}, errors.Wrapf(errors.TypeRecordShape, err, "bad iteration %q", fields[2+k])
	}
	raw := fields[3+k]
	if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return Configuration{}, errors.Domain("quality %q is not a finite number", raw)
	}
	cfg.Quality, err = decimal.NewFromString(raw)
	if err != nil {
		return Configuration{}, errors.Wrapf(errors.TypeRecordShape, err, "bad quality %q", fields[3+k])
	}
	return cfg, nil
}
