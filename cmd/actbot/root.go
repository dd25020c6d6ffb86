package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/actbot"
	"github.com/aretw0/actbot/internal/cli"
	"github.com/aretw0/actbot/internal/config"
	"github.com/aretw0/actbot/pkg/observability"
)

var rootCmd = &cobra.Command{
	Use:   "actbot",
	Short: "A.C.T. is a guided business coaching interview",
	Long: `actbot runs the A.C.T. (Assess, Commit, Transform) interview: 18 questions
that size up a small business, register the owner and recommend a coaching plan.
It can be used from the terminal, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// newBot loads the configuration named by the persistent flags and builds a Bot.
func newBot(cmd *cobra.Command, opts ...actbot.Option) (*actbot.Bot, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.Log, debug)
	if err != nil {
		return nil, err
	}

	opts = append([]actbot.Option{actbot.WithLogger(logger)}, opts...)
	return actbot.New(cfg, opts...)
}

// withoutTimers keeps one-shot commands from arming inactivity timers.
var withoutTimers = actbot.WithoutTimers()

// newMetrics creates the collectors shared by the bot and the /metrics endpoint.
func newMetrics() (*observability.Metrics, actbot.Option) {
	m := observability.NewMetrics()
	return m, actbot.WithMetrics(m)
}
