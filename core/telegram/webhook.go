package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	coreconfig "github.com/m3rciful/likebot/core/config"
	"github.com/m3rciful/likebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookServerOptions configures the inbound webhook HTTP server.
type WebhookServerOptions struct {
	Listen      string
	Port        int
	Path        string
	SecretToken string

	Bot *tele.Bot
	// Handler is the fully wrapped update entry point.
	Handler tele.HandlerFunc
	// Health backs GET /healthz; nil always reports healthy.
	Health func(ctx context.Context) error
}

// WebhookServer accepts Telegram updates over HTTP and runs each one to
// completion before answering, so handler failures map to status codes.
type WebhookServer struct {
	echo *echo.Echo
	opts WebhookServerOptions
}

// NewWebhookServer registers the update route, a catch-all delegating to it
// and the health probe.
func NewWebhookServer(opts WebhookServerOptions) *WebhookServer {
	if opts.Path == "" {
		opts.Path = coreconfig.DefaultWebhookPath
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &WebhookServer{echo: e, opts: opts}
	e.GET("/healthz", s.health)
	e.POST(opts.Path, s.update)
	e.Any("/*", s.update)
	return s
}

// Handler exposes the router for tests and custom listeners.
func (s *WebhookServer) Handler() http.Handler {
	return s.echo
}

// Addr returns the listen address.
func (s *WebhookServer) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Listen, s.opts.Port)
}

// Start serves until Shutdown. http.ErrServerClosed is not reported.
func (s *WebhookServer) Start() error {
	logger.LogEvent(logger.Background(), logger.HTTP, slog.LevelInfo, "http.listen",
		slog.String("status", "ok"),
		slog.String("listen", s.Addr()),
		slog.String("path", s.opts.Path),
	)
	if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting updates and waits for in-flight ones.
func (s *WebhookServer) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *WebhookServer) update(c echo.Context) error {
	start := time.Now()
	req := c.Request()
	if s.opts.SecretToken != "" && req.Header.Get(SecretTokenHeader) != s.opts.SecretToken {
		s.logRequest(c, http.StatusForbidden, start, "bad_secret")
		return c.String(http.StatusForbidden, "forbidden")
	}

	var upd tele.Update
	if err := json.NewDecoder(req.Body).Decode(&upd); err != nil {
		s.logRequest(c, http.StatusBadRequest, start, "decode")
		return c.String(http.StatusBadRequest, "bad request")
	}
	if s.opts.Bot == nil || s.opts.Handler == nil {
		s.logRequest(c, http.StatusServiceUnavailable, start, "not_ready")
		return c.String(http.StatusServiceUnavailable, "not ready")
	}

	if err := s.opts.Handler(s.opts.Bot.NewContext(upd)); err != nil {
		s.logRequest(c, http.StatusInternalServerError, start, "handler")
		return c.String(http.StatusInternalServerError, "internal error")
	}
	return c.String(http.StatusOK, "ok")
}

func (s *WebhookServer) health(c echo.Context) error {
	if s.opts.Health != nil {
		if err := s.opts.Health(c.Request().Context()); err != nil {
			logger.LogEvent(c.Request().Context(), logger.HTTP, slog.LevelWarn, "http.health",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			return c.String(http.StatusServiceUnavailable, "unhealthy")
		}
	}
	return c.String(http.StatusOK, "ok")
}

func (s *WebhookServer) logRequest(c echo.Context, code int, start time.Time, cause string) {
	logger.LogEvent(c.Request().Context(), logger.HTTP, slog.LevelWarn, "http.update",
		slog.String("status", "fail"),
		slog.Int("http_code", code),
		slog.String("path", c.Request().URL.Path),
		slog.String("cause", cause),
		slog.Duration("duration", time.Since(start)),
	)
}
