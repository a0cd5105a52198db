package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var (
	config  = "./config/bot.yaml"
	rootCmd = &cobra.Command{
		Use:   "ercx-bot",
		Short: "ERCx compliance Telegram bot",
		Long: `Telegram bot that tests ERC-20 and ERC-4626 tokens against the ERCx
compliance service and reports the results back to the chat.

Such as "ercx-bot run" or "ercx-bot check --standard ERC-20 --network Mainnet 0x..."
`,
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&config, "config", "c", "config/bot.yaml", "Path to config file")
}
