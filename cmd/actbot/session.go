package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/actbot/pkg/handoff"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, hand off and remove sessions kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := newBot(cmd, withoutTimers)
		if err != nil {
			return err
		}
		defer bot.Close()

		ids, err := bot.Service().Manager().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := newBot(cmd, withoutTimers)
		if err != nil {
			return err
		}
		defer bot.Close()

		res, err := bot.Service().Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionTokenCmd = &cobra.Command{
	Use:   "token <session-id>",
	Short: "Print a resume token for a session",
	Long:  `Encodes the stage and answers of a session as a token accepted by "chat --resume" and GET /sessions/resume.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := newBot(cmd, withoutTimers)
		if err != nil {
			return err
		}
		defer bot.Close()

		res, err := bot.Service().Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session '%s': %w", args[0], err)
		}
		token, err := handoff.EncodeToken(res.Session.Stage, res.Session.Answers)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bot, err := newBot(cmd, withoutTimers)
		if err != nil {
			return err
		}
		defer bot.Close()

		var errs []error
		for _, sessionID := range args {
			if err := bot.Service().Delete(cmd.Context(), sessionID); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove '%s': %w", sessionID, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionTokenCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
