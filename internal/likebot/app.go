// Package likebot wires the like workflow into the Telegram runtime.
package likebot

import (
	"context"
	"fmt"

	"github.com/m3rciful/likebot/core/bootstrap"
	"github.com/m3rciful/likebot/core/kv"
	tg "github.com/m3rciful/likebot/core/telegram"
	"github.com/m3rciful/likebot/core/telegram/router"
	"github.com/m3rciful/likebot/core/telegram/state"
	"github.com/m3rciful/likebot/internal/dialog"
	"github.com/m3rciful/likebot/internal/gate"
	"github.com/m3rciful/likebot/internal/likes"
	"github.com/m3rciful/likebot/internal/voting"

	tele "gopkg.in/telebot.v4"
)

// App holds the services and the update entry point.
type App struct {
	cfg   *Config
	store kv.Store

	likes  *likes.Store
	dialog *dialog.Conversation
	votes  *voting.Engine
	gate   *gate.Gate
	// tgQuery is bound to the bot on start; nil when a query was injected.
	tgQuery *gate.Telegram

	registry *tg.Registry
	handler  tele.HandlerFunc
}

// Bootstrap opens the configured store and builds the App.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Store:    cfg.Store,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	app, err := New(cfg, res.Store, nil)
	if err != nil {
		_ = res.Store.Close()
		return nil, err
	}
	return app, nil
}

// New builds the App over store. A nil membership query uses getChatMember
// through the running bot.
func New(cfg *Config, store kv.Store, membership gate.MembershipQuery) (*App, error) {
	if cfg == nil || store == nil {
		return nil, fmt.Errorf("likebot: config and store are required")
	}
	a := &App{cfg: cfg, store: store, registry: tg.NewRegistry()}
	if membership == nil {
		a.tgQuery = &gate.Telegram{}
		membership = a.tgQuery
	}

	a.likes = likes.New(store, likes.WithMaxNameLength(cfg.Likes.MaxNameLength))
	a.gate = gate.New(membership)
	a.votes = voting.New(a.likes, a.gate)
	a.dialog = dialog.New(state.NewManager(store), a.likes).Conversation(a.present)

	if err := a.register(); err != nil {
		return nil, err
	}
	a.handler = router.New(router.Options{
		Registry:      a.registry,
		FSM:           a.dialog,
		AdminID:       cfg.Telegram.AdminID,
		OnAdminReject: a.onAdminReject,
		OnError:       a.onError,
	})
	return a, nil
}

// Handler is the update entry point without transport middleware.
func (a *App) Handler() tele.HandlerFunc {
	return a.handler
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := &a.cfg.Config
	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Update:      a.handler,
		Middlewares: tg.DefaultMiddlewares(core, a.onRateLimited),
		Health:      a.store.Ping,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			if a.tgQuery != nil {
				a.tgQuery.Bind(rt.Bot)
			}
			return nil
		},
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}
