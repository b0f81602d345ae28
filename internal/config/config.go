// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"trajectory-stn/core/aggregate"
	"trajectory-stn/core/stn"
	"trajectory-stn/core/trajectory"
	"trajectory-stn/internal/errors"
	"trajectory-stn/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Input describes where trajectory files live and how they are written
	Input InputConfig `json:"input"`

	// Schema points at the parameter definition file
	Schema SchemaConfig `json:"schema"`

	// Conversion controls aggregation and rendering
	Conversion ConversionConfig `json:"conversion"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// InputConfig contains input-related settings
type InputConfig struct {
	// Dir is the directory holding one file per run
	Dir string `json:"dir"`

	// Extension filters run files, e.g. ".txt"
	Extension string `json:"extension"`

	// Separator splits a line into origin and destination
	Separator string `json:"separator"`

	// EliteMarker flags an elite configuration
	EliteMarker string `json:"elite_marker"`
}

// SchemaConfig contains schema-related settings
type SchemaConfig struct {
	// Path is an .hcl, .yaml or .yml definition file
	Path string `json:"path"`
}

// ConversionConfig contains conversion settings
type ConversionConfig struct {
	// Statistic is min, max or mean
	Statistic string `json:"statistic"`

	// Digits is the number of fractional digits in the Fitness columns
	Digits int `json:"digits"`

	// Columns toggles the optional per-endpoint columns
	Columns stn.Columns `json:"columns"`

	// Workers bounds parallel run parsing
	Workers int `json:"workers"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Path is the STN file, or "-" for stdout
	Path string `json:"path"`
}

// Default returns a default configuration
func Default() *Config {
	parser := trajectory.DefaultParserConfig()
	return &Config{
		Version: "1.0",
		Input: InputConfig{
			Extension:   ".txt",
			Separator:   parser.Separator,
			EliteMarker: parser.EliteMarker,
		},
		Conversion: ConversionConfig{
			Statistic: string(aggregate.StatMin),
			Digits:    2,
			Workers:   1,
		},
		Output: OutputConfig{
			Path: "-",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Input("failed to read config "+path, err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to parse config "+path, err)
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Parser returns the parser section
func (c *Config) Parser() trajectory.ParserConfig {
	return trajectory.ParserConfig{
		Separator:   c.Input.Separator,
		EliteMarker: c.Input.EliteMarker,
	}
}

// Validate checks every field a conversion depends on
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return errors.Config("input directory is required")
	}
	if c.Schema.Path == "" {
		return errors.Config("schema path is required")
	}
	if err := c.Parser().Validate(); err != nil {
		return err
	}
	if _, err := aggregate.ParseStatistic(c.Conversion.Statistic); err != nil {
		return err
	}
	if c.Conversion.Digits < 0 {
		return errors.Config("digits %d < 0", c.Conversion.Digits)
	}
	if c.Conversion.Workers < 1 {
		return errors.Config("workers %d < 1", c.Conversion.Workers)
	}
	if c.Output.Path == "" {
		return errors.Config("output path is required (use - for stdout)")
	}
	return nil
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
