package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/actbot/internal/presentation/graph"
	"github.com/aretw0/actbot/internal/runtime"
	"github.com/aretw0/actbot/pkg/domain"
)

// stagesCmd lists the interview stages or exports them as a Mermaid graph.
var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the interview stages",
	Long: `Prints the 18 interview stages with their input kind.
With --graph it outputs a Mermaid diagram (graph TD) of the stage routes instead;
--session highlights how far a stored session got.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asGraph, _ := cmd.Flags().GetBool("graph")
		sessionID, _ := cmd.Flags().GetString("session")
		out := cmd.OutOrStdout()

		if !asGraph {
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tKIND\tBACK\tQUESTION")
			for i := domain.FirstStage; i <= domain.LastStage; i++ {
				def := runtime.Stages[i]
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", i, def.Kind, domain.BackEnabled(i), def.Question)
			}
			return w.Flush()
		}

		var overlay *graph.Overlay
		if sessionID != "" {
			bot, err := newBot(cmd, withoutTimers)
			if err != nil {
				return err
			}
			defer bot.Close()
			res, err := bot.Service().Get(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			overlay = graph.SessionOverlay(res.Session)
		}
		fmt.Fprint(out, graph.Stages(overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
	stagesCmd.Flags().Bool("graph", false, "Output a Mermaid diagram")
	stagesCmd.Flags().StringP("session", "s", "", "Highlight the progress of a stored session (with --graph)")
}
