package cli

import (
	"github.com/spf13/cobra"

	"unfurl/internal/bot"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run a Telegram bot that replies to links with their previews",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configDir, false)
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := bot.NewHandler(a.cfg.Telegram.BotToken, a.service, a.cfg.Unfurl.Timeout, a.log)
		if err != nil {
			return err
		}

		a.log.Info("Bot is running. Press Ctrl+C to exit.")
		h.Start(cmd.Context())
		a.log.Info("Bot shut down gracefully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
