package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	appconfig "github.com/AvaProtocol/ercx-bot/core/config"
	"github.com/AvaProtocol/ercx-bot/core/ercx"
	"github.com/AvaProtocol/ercx-bot/model"
)

var (
	checkArgs = struct {
		standard string
		network  string
		baseURL  string
		raw      bool
		generate bool
	}{}

	checkCmd = &cobra.Command{
		Use:   "check <address>",
		Short: "Look up the ERCx report of a token",
		Long: `Look up the compliance report of a token without going through Telegram.

ERCX_API_KEY is read from the environment or a .env file.
Use --generate to request a report when none exists yet.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
)

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	standard, ok := model.ParseStandard(checkArgs.standard)
	if !ok {
		return fmt.Errorf("unknown standard %q, use one of %v", checkArgs.standard, model.Standards)
	}
	network, ok := model.ParseNetwork(checkArgs.network)
	if !ok {
		return fmt.Errorf("unknown network %q, use one of %v", checkArgs.network, model.Networks)
	}
	address := args[0]
	if !model.IsValidAddress(address) {
		return fmt.Errorf("%q is not a valid token address", address)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load .env file: %w", err)
	}
	apiKey := os.Getenv(appconfig.ErcxAPIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("%s environment variable is required", appconfig.ErcxAPIKeyEnv)
	}

	client, err := ercx.NewClient(ercx.Config{BaseURL: checkArgs.baseURL, APIKey: apiKey}, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	q := model.ReportQuery{Standard: standard, Address: address, Network: network}
	results, err := client.FetchReport(cmd.Context(), q)
	if errors.Is(err, ercx.ErrReportNotFound) {
		fmt.Fprintf(out, "No %s report for %s on %s yet.\n", standard, address, network)
		if !checkArgs.generate {
			return nil
		}

		handle, err := client.RequestGeneration(cmd.Context(), q)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Report generation requested:")
		printer := pp.New()
		printer.SetOutput(out)
		printer.SetColoringEnabled(false)
		printer.Println(handle)
		return nil
	}
	if err != nil {
		return err
	}

	if checkArgs.raw {
		printer := pp.New()
		printer.SetOutput(out)
		printer.SetColoringEnabled(false)
		printer.Println(results)
	}

	fmt.Fprint(out, ercx.Summarize(results))
	fmt.Fprintf(out, "Pass rate: %s%%\n", ercx.PassRate(results).StringFixed(2))
	fmt.Fprintf(out, "Full report: %s\n", ercx.ReportURL(client.BaseURL(), q))
	return nil
}

func init() {
	checkCmd.Flags().StringVar(&checkArgs.standard, "standard", model.ERC20.String(), "token standard, ERC-20 or ERC-4626")
	checkCmd.Flags().StringVar(&checkArgs.network, "network", model.Mainnet.String(), "network, Mainnet, Sepolia or Goerli")
	checkCmd.Flags().StringVar(&checkArgs.baseURL, "base-url", ercx.DefaultBaseURL, "ERCx base url")
	checkCmd.Flags().BoolVar(&checkArgs.raw, "raw", false, "print the raw property results")
	checkCmd.Flags().BoolVar(&checkArgs.generate, "generate", false, "request a report when none exists")
	rootCmd.AddCommand(checkCmd)
}
