package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ercx-bot/core/backup"
	"github.com/AvaProtocol/ercx-bot/storage"
)

var (
	backupDbPath string
	backupDir    string
	restoreFile  string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup the session database",
		Long: `Backup the badger session database to a directory.

Backups are stored in the format: /backup_dir/yy-mm-dd-hh-mm/sessions.backup
Use --db to specify the session database and --dir where to store the backup.
The bot must be stopped, badger allows a single process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.NewWithPath(backupDbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			file, err := backup.NewService(nil, db, backupDir).PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup completed successfully to %s\n", file)
			return nil
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the session database from a backup",
		Long: `Restore the badger session database from a backup file.

Use --db to specify the session database to restore to.
Use --file to specify the backup file to restore from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.NewWithPath(backupDbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := backup.NewService(nil, db, "").Restore(cmd.Context(), restoreFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Restore completed successfully")
			return nil
		},
	}
)

func init() {
	backupCmd.Flags().StringVar(&backupDbPath, "db", "./data/sessions", "path to the session database")
	backupCmd.Flags().StringVar(&backupDir, "dir", "./backup", "directory to store backups")
	rootCmd.AddCommand(backupCmd)

	restoreCmd.Flags().StringVar(&backupDbPath, "db", "./data/sessions", "path to the session database")
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "backup file to restore from (required)")
	_ = restoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(restoreCmd)
}
