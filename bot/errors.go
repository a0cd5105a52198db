package bot

import (
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/AvaProtocol/ercx-bot/version"
)

// goSafe runs fn in a goroutine. A panic is logged and reported to Sentry and
// does not take the process down.
func (b *Bot) goSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("recovered from panic", "panic", r, "stack", string(debug.Stack()))
				sentry.CurrentHub().Recover(r)
			}
		}()
		fn()
	}()
}

func (b *Bot) initSentry() {
	if b.config.SentryDsn == "" {
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              b.config.SentryDsn,
		ServerName:       b.config.ServerName,
		Environment:      string(b.config.Environment),
		Release:          version.Full(),
		AttachStacktrace: true,
		TracesSampleRate: 0.1,
	})
	if err != nil {
		b.logger.Errorf("Sentry initialization failed: %v", err)
		return
	}
	b.logger.Info("Sentry initialized", "server_name", b.config.ServerName)
}

// sentryFlushSafely is a no-op when Sentry was never initialized.
func sentryFlushSafely(timeout time.Duration) {
	_ = sentry.Flush(timeout)
}
