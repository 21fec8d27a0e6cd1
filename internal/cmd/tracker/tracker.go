// Package tracker parses tracker command flags and starts the bot runtime.
package tracker

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/collectiontracker/internal/enjin"
	entrypoint "github.com/louisbranch/collectiontracker/internal/platform/cmd"
	"github.com/louisbranch/collectiontracker/internal/tracker/app"
	"github.com/louisbranch/collectiontracker/internal/tracker/cache"
	sessionbbolt "github.com/louisbranch/collectiontracker/internal/tracker/storage/bbolt"
	namesqlite "github.com/louisbranch/collectiontracker/internal/tracker/storage/sqlite"
	"github.com/louisbranch/collectiontracker/internal/tracker/worker"
	"github.com/louisbranch/collectiontracker/internal/transport/telegram"
)

// Config holds tracker command configuration.
type Config struct {
	TelegramToken    string `env:"COLLECTIONTRACKER_TELEGRAM_TOKEN"`
	TelegramEndpoint string `env:"COLLECTIONTRACKER_TELEGRAM_ENDPOINT"`

	EnjinEndpoint   string `env:"COLLECTIONTRACKER_ENJIN_ENDPOINT"`
	EnjinAPIKey     string `env:"COLLECTIONTRACKER_ENJIN_API_KEY"`
	EnjinBearerAuth bool   `env:"COLLECTIONTRACKER_ENJIN_BEARER_AUTH"`

	DataDir       string `env:"COLLECTIONTRACKER_DATA_DIR" envDefault:"data"`
	SessionDBPath string `env:"COLLECTIONTRACKER_SESSION_DB_PATH"`
	NamesDBPath   string `env:"COLLECTIONTRACKER_NAMES_DB_PATH"`

	UniverseTTLSeconds  int `env:"COLLECTIONTRACKER_UNIVERSE_TTL_SECONDS" envDefault:"1800"`
	OwnershipTTLSeconds int `env:"COLLECTIONTRACKER_OWNERSHIP_TTL_SECONDS" envDefault:"300"`
	UniversePageCap     int `env:"COLLECTIONTRACKER_UNIVERSE_PAGE_CAP" envDefault:"20000"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.TelegramToken, "telegram-token", cfg.TelegramToken, "Telegram bot token")
	fs.StringVar(&cfg.EnjinAPIKey, "enjin-api-key", cfg.EnjinAPIKey, "Enjin platform API key")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for local databases")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.SessionDBPath == "" {
		cfg.SessionDBPath = filepath.Join(cfg.DataDir, "sessions.db")
	}
	if cfg.NamesDBPath == "" {
		cfg.NamesDBPath = filepath.Join(cfg.DataDir, "collections.db")
	}
	return cfg, nil
}

// Run starts the tracker bot and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	sessions, err := sessionbbolt.Open(cfg.SessionDBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Printf("close session store: %v", err)
		}
	}()

	names, err := namesqlite.Open(cfg.NamesDBPath)
	if err != nil {
		return fmt.Errorf("open name index: %w", err)
	}
	defer func() {
		if err := names.Close(); err != nil {
			log.Printf("close name index: %v", err)
		}
	}()

	ledger, err := enjin.New(enjin.Config{
		Endpoint:   cfg.EnjinEndpoint,
		APIKey:     cfg.EnjinAPIKey,
		BearerAuth: cfg.EnjinBearerAuth,
	})
	if err != nil {
		return err
	}

	runner := worker.New(log.Printf)
	defer runner.Wait()

	universes := cache.NewUniverseCache(ledger, cfg.UniversePageCap)
	ownership := cache.NewOwnershipCache(ledger, runner, time.Duration(cfg.OwnershipTTLSeconds)*time.Second)

	bot, err := telegram.New(telegram.Config{
		Token:    cfg.TelegramToken,
		Endpoint: cfg.TelegramEndpoint,
	})
	if err != nil {
		return err
	}

	service, err := app.New(app.Config{
		Sessions:       sessions,
		Names:          names,
		Universes:      universes,
		Ownership:      ownership,
		Ledger:         ledger,
		Sender:         bot,
		UniverseMaxAge: time.Duration(cfg.UniverseTTLSeconds) * time.Second,
		Logf:           log.Printf,
	})
	if err != nil {
		return err
	}

	log.Printf("tracker bot polling for updates")
	return telegram.NewPoller(bot, service, log.Printf).Run(ctx)
}
