// Package cmd provides the CLI commands for stn.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trajectory-stn/internal/config"
	"trajectory-stn/internal/errors"
	"trajectory-stn/internal/logging"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stn",
	Short: "Build search trajectory networks from algorithm runs",
	Long: `stn converts the trajectory logs of a configurator into a Search
Trajectory Network: an edge list over location codes with aggregated quality.

Examples:
  stn convert --schema params.hcl --out stn.txt ./runs
  stn convert --statistic mean --elite --iteration ./runs
  stn schema params.yaml
  stn decode --schema params.hcl M2150`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the CLI. Failures are reported through the logger.
func Execute() error {
	defer logging.Sync()
	err := rootCmd.Execute()
	if err != nil {
		logging.Error("command failed",
			zap.String("kind", string(errors.TypeOf(err))),
			zap.Error(err),
		)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			logging.Warn("config file not found, using defaults", zap.String("path", cfgFile))
		}
	}
	return nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stn version %s\n", Version)
	},
}
