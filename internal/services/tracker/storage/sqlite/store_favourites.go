package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// FavouriteStore methods

const favouriteColumns = "entity_type, entity_id, note, created_at, updated_at, last_event_seq, last_event_at"

// PutFavourite upserts the presence row for one favourited entity.
func (s *Store) PutFavourite(ctx context.Context, rec storage.FavouriteRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.EntityType) == "" || strings.TrimSpace(rec.EntityID) == "" {
		return fmt.Errorf("target entity is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO favourites (entity_type, entity_id, note, created_at, updated_at, last_event_seq, last_event_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(entity_type, entity_id) DO UPDATE SET
    note = excluded.note,
    updated_at = excluded.updated_at,
    last_event_seq = excluded.last_event_seq,
    last_event_at = excluded.last_event_at`,
		rec.EntityType,
		rec.EntityID,
		rec.Note,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
		rec.LastEventSeq,
		toMillis(rec.LastEventAt),
	)
	if err != nil {
		return fmt.Errorf("put favourite: %w", err)
	}
	return nil
}

// GetFavourite retrieves the presence row for one entity.
func (s *Store) GetFavourite(ctx context.Context, entityType, entityID string) (storage.FavouriteRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.FavouriteRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.FavouriteRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entityType) == "" || strings.TrimSpace(entityID) == "" {
		return storage.FavouriteRecord{}, fmt.Errorf("target entity is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+favouriteColumns+" FROM favourites WHERE entity_type = ? AND entity_id = ?",
		entityType, entityID)
	rec, err := scanFavouriteRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.FavouriteRecord{}, storage.ErrNotFound
		}
		return storage.FavouriteRecord{}, fmt.Errorf("get favourite: %w", err)
	}
	return rec, nil
}

// DeleteFavourite removes the presence row for one entity. Removing a row
// that does not exist is not an error.
func (s *Store) DeleteFavourite(ctx context.Context, entityType, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entityType) == "" || strings.TrimSpace(entityID) == "" {
		return fmt.Errorf("target entity is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM favourites WHERE entity_type = ? AND entity_id = ?", entityType, entityID); err != nil {
		return fmt.Errorf("delete favourite: %w", err)
	}
	return nil
}

// ListFavourites returns all presence rows, oldest first.
func (s *Store) ListFavourites(ctx context.Context) ([]storage.FavouriteRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+favouriteColumns+" FROM favourites ORDER BY created_at ASC, entity_type ASC, entity_id ASC")
	if err != nil {
		return nil, fmt.Errorf("list favourites: %w", err)
	}
	defer rows.Close()

	var records []storage.FavouriteRecord
	for rows.Next() {
		rec, err := scanFavouriteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favourite: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favourites: %w", err)
	}
	return records, nil
}

// DeleteAllFavourites clears the favourite read model ahead of a full rebuild.
func (s *Store) DeleteAllFavourites(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM favourites"); err != nil {
		return fmt.Errorf("delete all favourites: %w", err)
	}
	return nil
}

func scanFavouriteRow(scanner rowScanner) (storage.FavouriteRecord, error) {
	var rec storage.FavouriteRecord
	var createdAt, updatedAt, lastEventAt int64
	if err := scanner.Scan(
		&rec.EntityType,
		&rec.EntityID,
		&rec.Note,
		&createdAt,
		&updatedAt,
		&rec.LastEventSeq,
		&lastEventAt,
	); err != nil {
		return storage.FavouriteRecord{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	rec.LastEventAt = fromMillis(lastEventAt)
	return rec, nil
}
