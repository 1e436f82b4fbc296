package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tree-builder/pkg/config"
	"github.com/tree-builder/pkg/telemetry"
	"github.com/tree-builder/pkg/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool
	logLevel   string
	logFile    string

	cfg    *config.Config
	logger utils.Logger

	shutdownTelemetry telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tree-builder",
	Short: "Build parent/child trees from flat records",
	Long: `tree-builder links flat records into a forest by their id and parent fields.

Records are read from JSON or YAML files (optionally gzip or zstd compressed),
from a SQL table, or from object storage. The forest is printed as an indented
tree or written as nested JSON, and can be uploaded to object storage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := utils.ParseLogLevel(cfg.Log.Level)
		if logLevel != "" {
			level = utils.ParseLogLevel(logLevel)
		}
		if verbose {
			level = utils.LevelDebug
		}

		path := cfg.Log.OutputPath
		if logFile != "" {
			path = logFile
		}
		if path != "" {
			fileLogger, err := utils.NewFileLogger(level, path)
			if err != nil {
				return err
			}
			logger = fileLogger
		} else {
			// stdout carries the built trees
			logger = utils.NewDefaultLogger(level, os.Stderr)
		}
		utils.SetGlobalLogger(logger)

		telemetryCfg := telemetry.LoadFromEnv().Apply(telemetry.Overrides{
			Enabled:  cfg.Telemetry.Enabled,
			Endpoint: cfg.Telemetry.Endpoint,
			Protocol: cfg.Telemetry.Protocol,
			Insecure: cfg.Telemetry.Insecure,
			Version:  Version,
		})
		shutdownTelemetry, err = telemetry.Init(cmd.Context(), telemetryCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		if telemetryCfg.Enabled {
			cfg.Telemetry.Enabled = true
			logger.Debug("tracing enabled (endpoint: %s, protocol: %s)", telemetryCfg.Endpoint, telemetryCfg.Protocol)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("Failed to flush traces: %v", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ./tree-builder.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")

	binName := BinName()
	rootCmd.Example = `  # Print the tree of a JSON file
  ` + binName + ` build -i ./menus.json --parent pid

  # Build from a SQL table described in a config file
  ` + binName + ` build -c ./tree-builder.yaml --source-type database --table sys_menu

  # Write compressed JSON and upload it
  ` + binName + ` build -i ./menus.yaml --format gzip -o ./menus.json.gz --upload trees/menus.json.gz`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
