package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/skylog-dev/skylog/internal/platform/storage/sqlitemigrate"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores a UTC time from its stored millisecond form.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable columns.
func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// fromNullMillis maps nullable SQL timestamps back into optional domain times.
func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

func toNullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func fromNullFloat(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	f := value.Float64
	return &f
}

func toNullBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}

func fromNullBool(value sql.NullBool) *bool {
	if !value.Valid {
		return nil
	}
	b := value.Bool
	return &b
}

// Store provides a SQLite-backed store implementing all tracker storage
// interfaces. One database file carries both the event journal and the
// projection tables so a single WAL handle serves the whole service.
type Store struct {
	sqlDB    *sql.DB
	registry *event.Registry
}

// Open opens the tracker SQLite database at the provided path and applies
// the embedded journal and projection migrations. The registry validates
// every appended event; it is required for write paths and may be nil for
// read-only consumers.
func Open(ctx context.Context, path string, registry *event.Registry) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.EventsFS, "events"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run events migrations: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.ProjectionsFS, "projections"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run projections migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, registry: registry}, nil
}

// Close releases the SQLite handle. A nil or unopened store closes cleanly,
// which keeps deferred cleanup simple on failed startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
