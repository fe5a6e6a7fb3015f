package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/likebot/core/config"
	"github.com/m3rciful/likebot/core/logger"
	tghelpers "github.com/m3rciful/likebot/core/telegram/helpers"
	tgsender "github.com/m3rciful/likebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Update is the entry point every update is passed to after Middlewares.
	Update      tele.HandlerFunc
	Middlewares []Middleware

	HTTPClient        HTTPClientOptions
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	// Health backs the webhook server's /healthz probe.
	Health func(ctx context.Context) error

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

const shutdownTimeout = 10 * time.Second

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Update == nil {
		return fmt.Errorf("telegram: nil update handler")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	webhook := cfg.Telegram.RunMode == coreconfig.RunModeWebhook

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Client: BuildHTTPClient(opts.HTTPClient),
		OnError: func(err error, c tele.Context) {
			ctx := logger.Background()
			if c != nil {
				ctx = tghelpers.BuildContext(c)
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.error",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		},
	}
	if !webhook {
		settings.Poller = BuildPoller(cfg.Telegram.LongPollTimeoutSeconds)
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	buildTook := time.Since(buildStart)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	useHelperDispatcher := !opts.DisableHelperDispatcher
	if useHelperDispatcher {
		tghelpers.SetDispatcher(dispatcher)
	}
	cleanup := func() {
		dispatcher.Close()
		if useHelperDispatcher {
			tghelpers.SetDispatcher(nil)
		}
	}

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	handler := Chain(opts.Update, opts.Middlewares)

	var server *WebhookServer
	if webhook {
		server, err = prepareWebhook(bot, cfg, handler, opts.Health, buildTook)
		if err != nil {
			cleanup()
			return err
		}
	} else {
		preparePolling(bot, cfg, handler, opts.DisableWebhookCleanup, buildTook)
	}

	InitBotCommands(bot, reg)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			cleanup()
			return err
		}
	}

	runDone := make(chan error, 1)
	go func() {
		if server != nil {
			runDone <- server.Start()
			return
		}
		bot.Start()
		runDone <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.LogEvent(ctx, logger.HTTP, slog.LevelWarn, "http.shutdown",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
			cancel()
		} else {
			bot.Stop()
		}
		<-runDone
		runErr = ctx.Err()
	case runErr = <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	cleanup()

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func preparePolling(bot *tele.Bot, cfg *coreconfig.Config, handler tele.HandlerFunc, skipCleanup bool, buildTook time.Duration) {
	for _, endpoint := range []string{tele.OnText, tele.OnCallback, tele.OnQuery} {
		bot.Handle(endpoint, handler)
	}

	poller := BuildPoller(cfg.Telegram.LongPollTimeoutSeconds)
	logger.TG.Info("polling mode",
		slog.String("event", "mode"),
		slog.String("mode", coreconfig.RunModeLongpoll),
		slog.Int("timeout_seconds", int(poller.Timeout/time.Second)),
		slog.Duration("duration", logger.RoundMS(buildTook)),
	)

	if skipCleanup {
		return
	}
	// A webhook left over from a previous deployment blocks getUpdates.
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.Warn("failed to delete webhook",
			slog.String("event", "delete_webhook"),
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TG.Info("webhook deleted",
		slog.String("event", "delete_webhook"),
		slog.String("mode", coreconfig.RunModeLongpoll),
	)
}

func prepareWebhook(bot *tele.Bot, cfg *coreconfig.Config, handler tele.HandlerFunc, health func(context.Context) error, buildTook time.Duration) (*WebhookServer, error) {
	publicURL := webhookPublicURL(cfg.Webhook.URL, cfg.Webhook.Path)
	err := bot.SetWebhook(&tele.Webhook{
		AllowedUpdates: append([]string(nil), AllowedUpdates...),
		SecretToken:    cfg.Webhook.SecretToken,
		Endpoint:       &tele.WebhookEndpoint{PublicURL: publicURL},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: set webhook: %w", err)
	}

	server := NewWebhookServer(WebhookServerOptions{
		Listen:      cfg.Webhook.Listen,
		Port:        cfg.Webhook.Port,
		Path:        cfg.Webhook.Path,
		SecretToken: cfg.Webhook.SecretToken,
		Bot:         bot,
		Handler:     handler,
		Health:      health,
	})
	logger.TG.LogAttrs(context.Background(), slog.LevelInfo, "webhook mode",
		slog.String("event", "mode"),
		slog.String("mode", coreconfig.RunModeWebhook),
		slog.String("listen", server.Addr()),
		slog.String("public_url", publicURL),
		slog.Duration("duration", logger.RoundMS(buildTook)),
	)
	return server, nil
}

// webhookPublicURL joins the public base URL and the route path unless the
// URL already ends with it.
func webhookPublicURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" || strings.HasSuffix(base, path) {
		return base
	}
	return base + path
}
