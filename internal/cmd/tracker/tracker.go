// Package tracker parses tracker command flags and starts the domain runtime.
package tracker

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/skylog-dev/skylog/internal/platform/cmd"
	"github.com/skylog-dev/skylog/internal/services/tracker/app"
)

// Config holds tracker command configuration.
type Config struct {
	DBPath         string        `env:"SKYLOG_TRACKER_DB_PATH" envDefault:"data/skylog.db"`
	HealthPort     int           `env:"SKYLOG_TRACKER_HEALTH_PORT" envDefault:"8090"`
	PollInterval   time.Duration `env:"SKYLOG_TRACKER_POLL_INTERVAL" envDefault:"15s"`
	StaleAfter     time.Duration `env:"SKYLOG_TRACKER_STALE_AFTER" envDefault:"90s"`
	RebuildOnStart bool          `env:"SKYLOG_TRACKER_REBUILD_ON_START"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The tracker health endpoint port")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "The feed poll interval")
	fs.DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "Feed absence before an aircraft is declared departed")
	fs.BoolVar(&cfg.RebuildOnStart, "rebuild", cfg.RebuildOnStart, "Rebuild every projection from the journal before serving")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the tracker runtime. No feed source is wired here; the binary
// serves queries and commands over the journal, and embedders inject an
// ingest.Source through app.RuntimeConfig when they have a feed.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			DBPath:         cfg.DBPath,
			HealthPort:     cfg.HealthPort,
			RebuildOnStart: cfg.RebuildOnStart,
			PollInterval:   cfg.PollInterval,
			StaleAfter:     cfg.StaleAfter,
		})
	})
}
