package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/statelab/internal/config"
	"github.com/spf13/cobra"
)

// settings are resolved once per invocation before any command runs.
var (
	settings config.Config
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "statelab",
	Short: "statelab runs finite-state machines described in JSON or YAML",
	Long: `statelab loads a state machine configuration and lets you drive it from a
console, replay scripted events, render it as a Mermaid diagram or serve it
over HTTP and MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		cfg, err := config.Load(files...)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		settings = cfg
		logger = cfg.Logger()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error (env STATELAB_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text, json, pretty (env STATELAB_LOG_FORMAT)")
	rootCmd.PersistentFlags().String("env-file", "", "Read settings from this .env file (default .env when present)")
}
