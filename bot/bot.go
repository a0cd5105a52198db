package bot

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gocron "github.com/go-co-op/gocron/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AvaProtocol/ercx-bot/core/backup"
	"github.com/AvaProtocol/ercx-bot/core/config"
	"github.com/AvaProtocol/ercx-bot/core/conversation"
	"github.com/AvaProtocol/ercx-bot/core/ercx"
	"github.com/AvaProtocol/ercx-bot/core/session"
	"github.com/AvaProtocol/ercx-bot/core/telegram"
	"github.com/AvaProtocol/ercx-bot/metrics"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
	"github.com/AvaProtocol/ercx-bot/storage"
	"github.com/AvaProtocol/ercx-bot/version"
)

type BotStatus string

const (
	initStatus     BotStatus = "init"
	runningStatus  BotStatus = "running"
	shutdownStatus BotStatus = "shutdown"
)

func RunWithConfig(configPath string) error {
	c, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	b, err := NewBot(c)
	if err != nil {
		return fmt.Errorf("cannot initialize bot from config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return b.Start(ctx)
}

// Bot wires the Telegram listener to the conversation machine and runs the
// supporting services around it.
type Bot struct {
	config *config.Config
	logger logger.Logger

	db       storage.Storage
	sessions session.Store
	backup   *backup.Service
	reports  *ercx.Client
	telegram *telegram.Client
	machine  *conversation.Machine
	listener *telegram.Listener

	registry *prometheus.Registry
	metrics  *metrics.BotAndProcessMetrics

	scheduler gocron.Scheduler
	http      *echo.Echo

	statusMu  sync.RWMutex
	status    BotStatus
	startedAt time.Time
}

func NewBot(c *config.Config) (*Bot, error) {
	b := &Bot{
		config:   c,
		logger:   logger.OrNop(c.Logger),
		registry: prometheus.NewRegistry(),
		status:   initStatus,
	}

	b.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	b.metrics = metrics.NewBotMetrics(b.registry)

	reports, err := ercx.NewClient(c.ErcxConfig(), b.logger)
	if err != nil {
		return nil, err
	}
	b.reports = reports

	if c.SessionDbPath != "" {
		b.db, err = storage.NewWithPath(c.SessionDbPath)
		if err != nil {
			return nil, fmt.Errorf("cannot open session database: %w", err)
		}
		b.sessions = session.NewBadgerStore(b.db)
		if c.BackupDir != "" {
			b.backup = backup.NewService(b.logger, b.db, c.BackupDir)
		}
	} else {
		b.sessions = session.NewMemoryStore()
	}

	b.telegram = telegram.NewClient(c.TelegramConfig(), b.logger)

	opts := c.ConversationOptions()
	opts.Spawn = b.goSafe
	b.machine = conversation.NewMachine(b.sessions, b.reports, b.telegram, b.metrics, b.logger, opts)
	b.listener = telegram.NewListener(b.telegram, b.machine, b.metrics, b.logger, b.goSafe)

	return b, nil
}

func (b *Bot) Status() BotStatus {
	b.statusMu.RLock()
	defer b.statusMu.RUnlock()
	return b.status
}

func (b *Bot) setStatus(s BotStatus) {
	b.statusMu.Lock()
	b.status = s
	b.statusMu.Unlock()
}

// Start runs the bot until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Infof("Starting ercx bot %s", version.Get())
	b.startedAt = time.Now()

	b.initSentry()

	if recovered, err := b.machine.Recover(ctx); err != nil {
		b.logger.Warn("cannot release stale report polls", "error", err)
	} else if recovered > 0 {
		b.logger.Info("Released sessions left polling by the previous run", "count", recovered)
	}

	b.logger.Info("Starting maintenance scheduler")
	if err := b.startScheduler(); err != nil {
		return err
	}

	b.logger.Info("Starting http server")
	b.startHttpServer()

	b.setStatus(runningStatus)
	b.logger.Info("Listening for telegram updates", "confirm_generation", b.config.ConfirmGeneration)

	err := b.listener.Run(ctx)

	b.logger.Info("Shutting down...")
	b.setStatus(shutdownStatus)
	b.stop()

	return err
}

func (b *Bot) stop() {
	b.machine.Stop()

	if b.scheduler != nil {
		if err := b.scheduler.Shutdown(); err != nil {
			b.logger.Warn("scheduler shutdown failed", "error", err)
		}
	}

	if b.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.http.Shutdown(ctx); err != nil {
			b.logger.Warn("http server shutdown failed", "error", err)
		}
	}

	if err := b.reports.Close(); err != nil {
		b.logger.Warn("cannot close report cache", "error", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.logger.Error("cannot close session database", "error", err)
		}
	}

	sentryFlushSafely(2 * time.Second)
}
