// Package mcp parses MCP command flags and starts the stdio server.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/skylog-dev/skylog/internal/platform/cmd"
	"github.com/skylog-dev/skylog/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath string `env:"SKYLOG_TRACKER_DB_PATH" envDefault:"data/skylog.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The tracker SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves tracker tools over MCP stdio. The server reads the same
// database the tracker writes, so it runs alongside the tracker process
// rather than replacing it.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(context.Context) error {
		return service.Run(ctx, service.Config{DBPath: cfg.DBPath})
	})
}
