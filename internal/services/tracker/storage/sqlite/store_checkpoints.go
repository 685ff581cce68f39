package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// CheckpointStore methods

// GetCheckpoint returns the stored journal position for a projection.
// A projection with no checkpoint yet reports position zero.
func (s *Store) GetCheckpoint(ctx context.Context, name string) (storage.CheckpointRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CheckpointRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CheckpointRecord{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.CheckpointRecord{}, fmt.Errorf("checkpoint name is required")
	}

	var lastSeq, updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT last_seq, updated_at FROM projection_checkpoints WHERE name = ?", name).
		Scan(&lastSeq, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CheckpointRecord{Name: name}, nil
		}
		return storage.CheckpointRecord{}, fmt.Errorf("get checkpoint: %w", err)
	}
	return storage.CheckpointRecord{
		Name:      name,
		LastSeq:   lastSeq,
		UpdatedAt: fromMillis(updatedAt),
	}, nil
}

// PutCheckpoint stores the journal position for a projection.
func (s *Store) PutCheckpoint(ctx context.Context, rec storage.CheckpointRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("checkpoint name is required")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO projection_checkpoints (name, last_seq, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    last_seq = excluded.last_seq,
    updated_at = excluded.updated_at`,
		rec.Name,
		rec.LastSeq,
		toMillis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put checkpoint: %w", err)
	}
	return nil
}
