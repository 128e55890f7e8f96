package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/statelab"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of statelab",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statelab version %s\n", strings.TrimSpace(statelab.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
