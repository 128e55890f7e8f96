package main

import (
	"fmt"

	"github.com/aretw0/statelab/internal/validator"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/sandbox"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config>",
	Short: "Check the configuration for consistency",
	Long: `Reports unknown initial states, transitions to undeclared states, actions
that do not compile and states that cannot be reached from the initial state.
Warnings do not fail the command unless --strict is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		cfg, err := loader.LoadConfigFile(args[0])
		if err != nil {
			return err
		}

		report := validator.ValidateConfig(cfg, sandbox.New())
		out := cmd.OutOrStdout()
		for _, issue := range report.Issues {
			fmt.Fprintln(out, issue.String())
		}
		if err := report.Err(); err != nil {
			return err
		}
		if strict && len(report.Issues) > 0 {
			return fmt.Errorf("found %d warnings", len(report.Issues))
		}
		fmt.Fprintln(out, "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
}
