package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <config>",
	Short: "Export the state diagram",
	Long:  `Loads the configuration and prints a Mermaid state diagram with the initial state highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), eng.Diagram())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
