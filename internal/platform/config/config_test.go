package config_test

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/skylog-dev/skylog/internal/platform/config"
)

type testConfig struct {
	DBPath       string        `env:"SKYLOG_CONFIG_TEST_DB_PATH" envDefault:"data/skylog.db"`
	PollInterval time.Duration `env:"SKYLOG_CONFIG_TEST_POLL_INTERVAL" envDefault:"10s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig

	if err := config.ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "data/skylog.db" {
		t.Fatalf("db path = %q, want default", cfg.DBPath)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("poll interval = %v, want 10s", cfg.PollInterval)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	var cfg testConfig
	t.Setenv("SKYLOG_CONFIG_TEST_POLL_INTERVAL", "250ms")

	if err := config.ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("poll interval = %v, want 250ms", cfg.PollInterval)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg testConfig
	t.Setenv("SKYLOG_CONFIG_TEST_POLL_INTERVAL", "not-a-duration")

	err := config.ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

// Exitf calls os.Exit, so the test re-runs itself in a child process and
// inspects the exit status from the parent.
func TestExitfStatusAndMessage(t *testing.T) {
	if os.Getenv("SKYLOG_EXITF_CHILD") == "1" {
		config.Exitf("open db %s: no such file", "missing.db")
		return
	}

	child := exec.Command(os.Args[0], "-test.run=^TestExitfStatusAndMessage$")
	child.Env = append(os.Environ(), "SKYLOG_EXITF_CHILD=1")
	out, err := child.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("child did not exit with failure: %v", err)
	}
	if code := exitErr.ExitCode(); code != 1 {
		t.Fatalf("child exit code = %d, want 1", code)
	}
	if !strings.Contains(string(out), "open db missing.db: no such file") {
		t.Fatalf("child output missing message: %q", string(out))
	}
}
