package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/m3rciful/likebot/core/buildinfo"
	corecmd "github.com/m3rciful/likebot/core/cmd"
	coreconfig "github.com/m3rciful/likebot/core/config"
	coredatabase "github.com/m3rciful/likebot/core/database"
	"github.com/m3rciful/likebot/core/logger"
	"github.com/m3rciful/likebot/internal/likebot"
)

const defaultConfigPath = "config.yaml"

func main() {
	app := &cli.App{
		Name:    "likebot",
		Usage:   "Telegram bot for creating likes and counting votes",
		Version: buildinfo.Summary(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Action: runBot,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "start the bot (default)",
				Action: runBot,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations for the postgres store and exit",
				Action: migrate,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runBot(c *cli.Context) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath:        c.String("config"),
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return likebot.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return likebot.Bootstrap(ctx, cfg.(*likebot.Config))
		},
	})
}

// migrate needs only the database section, so the bot token is not validated.
func migrate(c *cli.Context) error {
	path := corecmd.ResolveConfigPath(c.String("config"), "", defaultConfigPath)
	var cfg likebot.Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	if err := cfg.Database.Normalize(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return coredatabase.RunMigrations(ctx, cfg.Database)
}
