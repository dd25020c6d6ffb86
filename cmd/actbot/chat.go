package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/actbot/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the interview in the terminal",
	Long: `Starts an interactive interview on Stdin/Stdout.
Type your answers, or a number to pick an option. Commands: /back, /help, /save, /terms, /quit.
Sessions are kept in the configured store, so --session reopens an interview where it stopped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		referrer, _ := cmd.Flags().GetString("ref")
		token, _ := cmd.Flags().GetString("resume")
		plain, _ := cmd.Flags().GetBool("plain")
		quiet, _ := cmd.Flags().GetBool("quiet")

		bot, err := newBot(cmd)
		if err != nil {
			return err
		}
		defer bot.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Chat(sigCtx, bot.Service(), cli.ChatOptions{
			In:          os.Stdin,
			Out:         os.Stdout,
			Logger:      bot.Logger(),
			Plain:       plain || !cli.IsTerminal(os.Stdout),
			Quiet:       quiet,
			SessionID:   sessionID,
			Referrer:    referrer,
			ResumeToken: token,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to create or reopen")
	chatCmd.Flags().String("ref", "", "Name of the friend who referred you")
	chatCmd.Flags().String("resume", "", "Resume token from a saved-for-later link")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and colours")
	chatCmd.Flags().BoolP("quiet", "q", false, "Hide the banner and system messages")
}
