package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/statelab"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <config> <script>",
	Short: "Replay a script of events against the machine",
	Long: `Loads the configuration, then sends every event of the script in order,
pausing --delay before each one. The final snapshot is printed at the end.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		delay := settings.ReplayDelay
		if cmd.Flags().Changed("delay") {
			delay, _ = cmd.Flags().GetDuration("delay")
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		steps, err := loader.LoadScriptFile(args[1])
		if err != nil {
			return err
		}
		eng, err := loadEngine(ctx, args[0], nil)
		if err != nil {
			return err
		}

		id := uuid.NewString()
		out := cmd.OutOrStdout()
		if !jsonMode {
			unsubscribe := eng.Subscribe(func(snap domain.Snapshot) {
				fmt.Fprintf(out, "%s  %-12s %v\n", time.Now().Format("15:04:05.000"), snap.ID, compact(snap.Context))
			})
			defer unsubscribe()
		}

		results, err := eng.Replay(statelab.ContextWithReplayID(ctx, id), steps, delay)
		if err != nil {
			return fmt.Errorf("replay %s: %w", id, err)
		}

		if jsonMode {
			return json.NewEncoder(out).Encode(map[string]any{
				"replayId": id,
				"results":  results,
				"state":    eng.GetState(),
			})
		}
		for i, res := range results {
			fmt.Fprintf(out, "%3d  %-16s %s", i+1, steps[i].Event, res.Kind)
			if res.Error != "" {
				fmt.Fprintf(out, ": %s", res.Error)
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "final state: %s\n", eng.GetState().ID)
		return nil
	},
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Duration("delay", statelab.DefaultReplayDelay, "Pause before each event (env STATELAB_REPLAY_DELAY)")
	replayCmd.Flags().Bool("json", false, "Print the results as JSON")
}
