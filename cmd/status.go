package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ercx-bot/core/session"
	"github.com/AvaProtocol/ercx-bot/model"
	"github.com/AvaProtocol/ercx-bot/storage"
)

var (
	statusDbPath string
	statusUserID int64

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Display session status",
		Long: `Display how many users are stored in the session database and where they
are in the menu flow. The bot must be stopped, badger allows a single process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			db, err := storage.NewWithPath(statusDbPath)
			if err != nil {
				return fmt.Errorf("cannot open session database %s: %w", statusDbPath, err)
			}
			defer db.Close()

			store := session.NewBadgerStore(db)
			if statusUserID != 0 {
				return printSession(out, store, statusUserID)
			}

			sessions, err := store.List(context.Background())
			if err != nil {
				return fmt.Errorf("cannot list sessions: %w", err)
			}

			byState := lo.CountValuesBy(sessions, func(s model.Session) model.State { return s.State })

			fmt.Fprintf(out, "Session database: %s\n", statusDbPath)
			fmt.Fprintf(out, "Sessions: %d\n", len(sessions))
			for _, state := range []model.State{
				model.StateAwaitingStandard,
				model.StateAwaitingNetwork,
				model.StateAwaitingAddress,
				model.StatePolling,
			} {
				fmt.Fprintf(out, "  %-18s %d\n", state, byState[state])
			}
			return nil
		},
	}
)

func printSession(out io.Writer, store *session.BadgerStore, userID int64) error {
	s, found, err := store.Get(context.Background(), userID)
	if err != nil {
		return fmt.Errorf("cannot read session of user %d: %w", userID, err)
	}
	if !found {
		fmt.Fprintf(out, "No session for user %d\n", userID)
		return nil
	}

	fmt.Fprintf(out, "User: %d\n", s.UserID)
	fmt.Fprintf(out, "State: %s\n", s.State)
	fmt.Fprintf(out, "Standard: %s\n", lo.Ternary(s.Standard == "", "-", string(s.Standard)))
	fmt.Fprintf(out, "Network: %s\n", lo.Ternary(s.Network == "", "-", string(s.Network)))
	if s.Address != "" {
		fmt.Fprintf(out, "Polling: %s\n", s.Address)
	}
	fmt.Fprintf(out, "Checks: %d\n", s.Checks)
	return nil
}

func init() {
	statusCmd.Flags().StringVar(&statusDbPath, "db", "./data/sessions", "path to the session database")
	statusCmd.Flags().Int64Var(&statusUserID, "user", 0, "only show the session of this telegram user id")
	rootCmd.AddCommand(statusCmd)
}
