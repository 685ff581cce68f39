// Package cmd carries the startup plumbing shared by the skylog binaries:
// environment-backed configuration, flag parsing, and the telemetry
// lifecycle around a service run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/skylog-dev/skylog/internal/platform/config"
	"github.com/skylog-dev/skylog/internal/platform/otel"
)

// telemetryFlushTimeout bounds the trace flush when a run loop ends.
const telemetryFlushTimeout = 5 * time.Second

// Service names the skylog binaries report to telemetry.
const (
	ServiceTracker = "tracker"
	ServiceMCP     = "mcp"
)

// ParseConfig fills cfg from the process environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs runs the flag parser over args. A nil slice parses as empty.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs fills cfg from the environment, then lets the flags
// registered on fs override the result.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}

// RunWithTelemetry starts tracing for the named service, executes run, and
// flushes pending spans after run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer flushTelemetry(service, shutdown)
	return run(ctx)
}

// flushTelemetry drains the span pipeline on its own clock so a canceled
// run context cannot strand buffered traces.
func flushTelemetry(service string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("%s otel shutdown: %v", service, err)
	}
}
