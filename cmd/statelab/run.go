package main

import (
	"context"
	"errors"
	"os"

	"github.com/aretw0/statelab"
	"github.com/aretw0/statelab/internal/presentation/tui"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/runner"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <config>",
	Short: "Drive the machine from an interactive console",
	Long: `Loads the configuration and starts a console. Type "help" for the commands,
or an event name to send it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		pubOpts, closePublishers := publishers()
		defer closePublishers()

		eng, err := loadEngine(ctx, args[0], nil, pubOpts...)
		if err != nil {
			return err
		}

		interactive := !jsonMode && tui.IsTerminal(os.Stdout)
		opts := []runner.Option{
			runner.WithLogger(logger),
			runner.WithJSON(jsonMode),
			runner.WithReplayDelay(settings.ReplayDelay),
			runner.WithMaxInputSize(settings.MaxInputSize),
		}
		if interactive {
			if !noBanner {
				tui.PrintBanner(os.Stdout, statelab.Version)
			}
			render, err := tui.NewRenderer()
			if err != nil {
				logger.Warn("Markdown renderer unavailable", "err", err)
			} else {
				opts = append(opts, runner.WithRenderer(render))
			}
		} else {
			opts = append(opts, runner.WithPrompt(""))
		}

		if watchMode {
			if err := watchConfig(ctx, eng, args[0]); err != nil {
				return err
			}
		}

		err = runner.New(eng, opts...).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// watchConfig reloads the configuration into eng whenever the file changes.
// A configuration that fails to load keeps the running machine.
func watchConfig(ctx context.Context, eng *statelab.Engine, path string) error {
	changes, err := loader.Watch(ctx, path, loader.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	logger.Info("Watching configuration", "path", path)

	go func() {
		for range changes {
			if err := eng.LoadFile(ctx, path); err != nil {
				logger.Error("Reload failed, keeping the current machine", "path", path, "err", err)
				continue
			}
			logger.Info("Configuration reloaded", "path", path, "state", eng.GetState().ID)
		}
	}()
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (one JSON object per command)")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the configuration when the file changes")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner")
}
