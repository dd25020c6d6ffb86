package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/actbot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of actbot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "actbot version %s\n", strings.TrimSpace(actbot.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
