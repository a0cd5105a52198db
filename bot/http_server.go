package bot

import (
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AvaProtocol/ercx-bot/version"
)

type HttpJsonResp[T any] struct {
	Data T `json:"data"`
}

type versionInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
}

func (b *Bot) newHttpServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Register Sentry before Recover so panics are reported
	if b.config.SentryDsn != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	e.Use(middleware.Recover())

	e.GET("/up", func(c echo.Context) error {
		if b.Status() == runningStatus {
			return c.String(http.StatusOK, "up")
		}
		return c.String(http.StatusServiceUnavailable, "pending...")
	})

	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, &HttpJsonResp[versionInfo]{
			Data: versionInfo{Version: version.Get(), Revision: version.Commit()},
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})))

	return e
}

func (b *Bot) startHttpServer() {
	addr := b.config.HttpBindAddress
	if addr == "" {
		b.logger.Info("HTTP server disabled: no http_bind_address configured")
		return
	}

	b.http = b.newHttpServer()
	b.logger.Info("HTTP server listening", "address", addr)
	b.goSafe(func() {
		if err := b.http.Start(addr); err != nil && err != http.ErrServerClosed {
			b.logger.Warn("HTTP server failed; continuing without HTTP endpoint", "address", addr, "error", err)
		}
	})
}
