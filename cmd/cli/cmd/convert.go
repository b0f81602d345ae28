// Package cmd - convert command
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trajectory-stn/adapters/schemafile"
	"trajectory-stn/adapters/storage"
	"trajectory-stn/core/aggregate"
	"trajectory-stn/core/pipeline"
	"trajectory-stn/core/stn"
	"trajectory-stn/internal/config"
	"trajectory-stn/internal/logging"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Convert a directory of trajectory runs into an STN edge list",
	Long: `Read every run file in a directory (sorted by name, one run per file),
locate each configuration with the parameter schema, aggregate quality per
location and write one edge per line.

Flags override the config file.

Examples:
  stn convert --schema params.hcl ./runs
  stn convert --schema params.yaml --statistic mean --digits 3 --out stn.txt ./runs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("dir", "", "directory of run files")
	f.String("ext", "", "run file extension (default .txt)")
	f.StringP("schema", "s", "", "parameter schema file (.hcl, .yaml, .yml)")
	f.StringP("out", "o", "", "output file, - for stdout")
	f.String("statistic", "", "quality statistic: min, max or mean")
	f.Int("digits", 0, "fractional digits of the Fitness columns")
	f.Bool("elite", false, "add Elite columns")
	f.Bool("iteration", false, "add Iteration columns")
	f.Bool("data", false, "add Data columns")
	f.IntP("workers", "w", 0, "runs parsed in parallel")
	f.String("separator", "", "origin/destination separator")
	f.String("elite-marker", "", "marker of an elite configuration")
}

// applyConvertFlags overlays the flags the user actually set
func applyConvertFlags(cmd *cobra.Command, args []string, cfg *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	flag := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	str("dir", &cfg.Input.Dir)
	str("ext", &cfg.Input.Extension)
	str("separator", &cfg.Input.Separator)
	str("elite-marker", &cfg.Input.EliteMarker)
	str("schema", &cfg.Schema.Path)
	str("out", &cfg.Output.Path)
	str("statistic", &cfg.Conversion.Statistic)
	num("digits", &cfg.Conversion.Digits)
	num("workers", &cfg.Conversion.Workers)
	flag("elite", &cfg.Conversion.Columns.Elite)
	flag("iteration", &cfg.Conversion.Columns.Iteration)
	flag("data", &cfg.Conversion.Columns.Data)

	if len(args) > 0 {
		cfg.Input.Dir = args[0]
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := *config.Get()
	applyConvertFlags(cmd, args, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Debug("loading schema", zap.String("path", cfg.Schema.Path))
	logger := logging.With(zap.String("dir", cfg.Input.Dir))

	book, err := schemafile.Load(cfg.Schema.Path)
	if err != nil {
		return err
	}

	p, err := pipeline.New(book, pipeline.Options{
		Parser:    cfg.Parser(),
		Statistic: aggregate.Statistic(cfg.Conversion.Statistic),
		Output: stn.Options{
			Digits:  cfg.Conversion.Digits,
			Columns: cfg.Conversion.Columns,
		},
		Workers: cfg.Conversion.Workers,
	}, logger)
	if err != nil {
		return err
	}

	store := storage.NewFileStore()
	writer := storage.NewFileWriter(cfg.Output.Path).WithStdout(cmd.OutOrStdout())
	result, err := p.ConvertDir(cmd.Context(), store, store, writer, cfg.Input.Dir, cfg.Input.Extension)
	if err != nil {
		return err
	}

	logging.Info("stn written",
		zap.String("output", cfg.Output.Path),
		zap.Int("runs", result.Runs),
		zap.Int("edges", result.Edges),
		zap.Int("nodes", result.Nodes),
	)
	return nil
}
