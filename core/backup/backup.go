package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AvaProtocol/ercx-bot/pkg/logger"
	"github.com/AvaProtocol/ercx-bot/storage"
)

const backupFileName = "sessions.backup"

// Service snapshots the session database into timestamped directories,
// laid out as <dir>/yy-mm-dd-hh-mm/sessions.backup.
type Service struct {
	logger    logger.Logger
	db        storage.Storage
	backupDir string
	now       func() time.Time
}

func NewService(log logger.Logger, db storage.Storage, backupDir string) *Service {
	return &Service{
		logger:    logger.OrNop(log),
		db:        db,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// PerformBackup writes a full backup and returns the file it created.
func (s *Service) PerformBackup(ctx context.Context) (string, error) {
	backupPath := filepath.Join(s.backupDir, s.now().Format("06-01-02-15-04"))
	if err := os.MkdirAll(backupPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupFile := filepath.Join(backupPath, backupFileName)
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	s.logger.Info("running session backup", "file", backupFile)
	if _, err := s.db.Backup(ctx, f, 0); err != nil {
		return "", fmt.Errorf("backup operation failed: %w", err)
	}

	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("failed to flush backup file: %w", err)
	}

	s.logger.Info("session backup completed", "file", backupFile)
	return backupFile, nil
}

// Restore loads a backup file produced by PerformBackup into the database.
func (s *Service) Restore(ctx context.Context, backupFile string) error {
	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	s.logger.Info("restoring session backup", "file", backupFile, "db", s.db.DbPath())
	if err := s.db.Load(ctx, f); err != nil {
		return fmt.Errorf("restore operation failed: %w", err)
	}
	return nil
}
