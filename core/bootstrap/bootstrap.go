package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/likebot/core/config"
	coredatabase "github.com/m3rciful/likebot/core/database"
	"github.com/m3rciful/likebot/core/kv"
	"github.com/m3rciful/likebot/core/logger"
)

// Options control the bootstrap pipeline. Function fields default to the real implementations.
type Options struct {
	Config   *coreconfig.Config
	Store    kv.Config
	Database coredatabase.Config
	// SkipMigrations leaves the schema alone for the postgres driver.
	SkipMigrations bool

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
	DialRedis  func(context.Context, kv.RedisConfig) (kv.Store, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store kv.Store
}

// Run initializes the logger and opens the configured key-value store.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	store, err := openStore(ctx, opts)
	if err != nil {
		logger.LogEvent(ctx, logger.KV, slog.LevelError, "kv.open",
			slog.String("driver", opts.Store.Driver),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("bootstrap: store initialization failed: %w", err)
	}
	logger.LogEvent(ctx, logger.KV, slog.LevelInfo, "kv.open",
		slog.String("driver", opts.Store.Driver),
		slog.String("status", "ok"),
	)

	return &Result{Store: kv.WithLogging(store, opts.Store.Driver)}, nil
}

func openStore(ctx context.Context, opts Options) (kv.Store, error) {
	switch opts.Store.Driver {
	case kv.DriverMemory, "":
		return kv.NewMemory(), nil
	case kv.DriverRedis:
		dial := opts.DialRedis
		if dial == nil {
			dial = kv.NewRedis
		}
		return dial(ctx, opts.Store.Redis)
	case kv.DriverPostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, opts.Database)
		if err != nil {
			return nil, err
		}
		if !opts.SkipMigrations {
			migrate := opts.Migrate
			if migrate == nil {
				migrate = coredatabase.RunMigrations
			}
			if err := migrate(ctx, opts.Database); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		return kv.NewPostgres(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Store.Driver)
	}
}
