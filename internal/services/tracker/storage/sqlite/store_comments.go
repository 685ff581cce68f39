package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// CommentStore methods

const commentColumns = "id, entity_type, entity_id, author, body, is_deleted, created_at, updated_at, deleted_at, last_event_seq, last_event_at"

// PutComment upserts one comment read-model row.
func (s *Store) PutComment(ctx context.Context, rec storage.CommentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("comment id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO comments (id, entity_type, entity_id, author, body, is_deleted, created_at, updated_at, deleted_at, last_event_seq, last_event_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    entity_type = excluded.entity_type,
    entity_id = excluded.entity_id,
    author = excluded.author,
    body = excluded.body,
    is_deleted = excluded.is_deleted,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at,
    deleted_at = excluded.deleted_at,
    last_event_seq = excluded.last_event_seq,
    last_event_at = excluded.last_event_at`,
		rec.ID,
		rec.EntityType,
		rec.EntityID,
		rec.Author,
		rec.Text,
		rec.IsDeleted,
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
		toNullMillis(rec.DeletedAt),
		rec.LastEventSeq,
		toMillis(rec.LastEventAt),
	)
	if err != nil {
		return fmt.Errorf("put comment: %w", err)
	}
	return nil
}

// GetComment retrieves one comment row, deleted or not.
func (s *Store) GetComment(ctx context.Context, commentID string) (storage.CommentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CommentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CommentRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(commentID) == "" {
		return storage.CommentRecord{}, fmt.Errorf("comment id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = ?", commentID)
	rec, err := scanCommentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CommentRecord{}, storage.ErrNotFound
		}
		return storage.CommentRecord{}, fmt.Errorf("get comment: %w", err)
	}
	return rec, nil
}

// ListComments returns comments for one target entity, oldest first.
func (s *Store) ListComments(ctx context.Context, entityType, entityID string, includeDeleted bool) ([]storage.CommentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entityType) == "" || strings.TrimSpace(entityID) == "" {
		return nil, fmt.Errorf("target entity is required")
	}

	query := "SELECT " + commentColumns + " FROM comments WHERE entity_type = ? AND entity_id = ?"
	if !includeDeleted {
		query += " AND is_deleted = 0"
	}
	query += " ORDER BY created_at ASC, id ASC"

	return s.listComments(ctx, query, entityType, entityID)
}

// ListAllComments returns every comment row, oldest first.
func (s *Store) ListAllComments(ctx context.Context, includeDeleted bool) ([]storage.CommentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := "SELECT " + commentColumns + " FROM comments"
	if !includeDeleted {
		query += " WHERE is_deleted = 0"
	}
	query += " ORDER BY created_at ASC, id ASC"

	return s.listComments(ctx, query)
}

func (s *Store) listComments(ctx context.Context, query string, args ...any) ([]storage.CommentRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var records []storage.CommentRecord
	for rows.Next() {
		rec, err := scanCommentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return records, nil
}

// DeleteCommentsByEntity removes rows for one target entity ahead of a
// scoped rebuild.
func (s *Store) DeleteCommentsByEntity(ctx context.Context, entityType, entityID string) error {
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
		"DELETE FROM comments WHERE entity_type = ? AND entity_id = ?", entityType, entityID); err != nil {
		return fmt.Errorf("delete comments by entity: %w", err)
	}
	return nil
}

// DeleteAllComments clears the comment read model ahead of a full rebuild.
func (s *Store) DeleteAllComments(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM comments"); err != nil {
		return fmt.Errorf("delete all comments: %w", err)
	}
	return nil
}

func scanCommentRow(scanner rowScanner) (storage.CommentRecord, error) {
	var rec storage.CommentRecord
	var isDeleted int
	var createdAt, updatedAt, lastEventAt int64
	var deletedAt sql.NullInt64
	if err := scanner.Scan(
		&rec.ID,
		&rec.EntityType,
		&rec.EntityID,
		&rec.Author,
		&rec.Text,
		&isDeleted,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&rec.LastEventSeq,
		&lastEventAt,
	); err != nil {
		return storage.CommentRecord{}, err
	}
	rec.IsDeleted = isDeleted != 0
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	rec.DeletedAt = fromNullMillis(deletedAt)
	rec.LastEventAt = fromMillis(lastEventAt)
	return rec, nil
}
