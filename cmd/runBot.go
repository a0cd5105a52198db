package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ercx-bot/bot"
)

var (
	runBotCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		Long: `Initialize and run the Telegram bot.

Use --config=path-to-your-config-file. default is=./config/bot.yaml
TG_TOKEN and ERCX_API_KEY are read from the environment or a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bot.RunWithConfig(config)
		},
	}
)

func init() {
	rootCmd.AddCommand(runBotCmd)
}
