package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/skylog-dev/skylog/internal/platform/id"
	"github.com/skylog-dev/skylog/internal/services/tracker/domain/event"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// EventStore methods (append-only journal)

const eventColumns = "seq, id, event_type, occurred_at, source, entity_type, entity_id, payload_json"

const eventSeqCounter = "event_seq"

// AppendEvent atomically appends an event and returns it with its id,
// sequence, and normalized occurred-at set.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stored, err := s.appendEventTx(ctx, tx, evt)
	if err != nil {
		if isConstraintError(err) && evt.ID != "" {
			if existing, lookupErr := s.GetEventByID(ctx, evt.ID); lookupErr == nil {
				return existing, nil
			}
		}
		return event.Event{}, err
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit: %w", err)
	}

	return stored, nil
}

// AppendEvents atomically appends a batch of events in order. Sequence
// numbers are allocated contiguously; either all events are durable or none.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		appended, err := s.appendEventTx(ctx, tx, evt)
		if err != nil {
			return nil, err
		}
		stored = append(stored, appended)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return stored, nil
}

// appendEventTx runs one event through registry validation and inserts it
// inside tx. Re-appending an id already in the journal returns the stored
// event without allocating a new sequence.
func (s *Store) appendEventTx(ctx context.Context, tx *sql.Tx, evt event.Event) (event.Event, error) {
	if s.registry == nil {
		return event.Event{}, fmt.Errorf("event registry is required")
	}

	validated, err := s.registry.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}
	evt = validated

	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if evt.ID != "" {
		row := tx.QueryRowContext(ctx,
			"SELECT "+eventColumns+" FROM events WHERE id = ?", evt.ID)
		existing, scanErr := scanEventRow(row)
		if scanErr == nil {
			return existing, nil
		}
		if !errors.Is(scanErr, sql.ErrNoRows) {
			return event.Event{}, fmt.Errorf("check existing event: %w", scanErr)
		}
	} else {
		newID, err := id.NewID()
		if err != nil {
			return event.Event{}, fmt.Errorf("generate event id: %w", err)
		}
		evt.ID = newID
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO counters (name, value) VALUES (?, 1) ON CONFLICT(name) DO NOTHING",
		eventSeqCounter); err != nil {
		return event.Event{}, fmt.Errorf("init event seq: %w", err)
	}
	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT value FROM counters WHERE name = ?", eventSeqCounter).Scan(&seq); err != nil {
		return event.Event{}, fmt.Errorf("get event seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE counters SET value = value + 1 WHERE name = ?", eventSeqCounter); err != nil {
		return event.Event{}, fmt.Errorf("increment event seq: %w", err)
	}
	if seq <= 0 {
		return event.Event{}, fmt.Errorf("event seq is required")
	}
	evt.Seq = seq

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO events (seq, id, event_type, occurred_at, source, entity_type, entity_id, payload_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		evt.Seq,
		evt.ID,
		string(evt.Type),
		toMillis(evt.OccurredAt),
		string(evt.Source),
		evt.EntityType,
		evt.EntityID,
		evt.PayloadJSON,
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	return evt, nil
}

// GetEventByID retrieves an event by its id.
func (s *Store) GetEventByID(ctx context.Context, eventID string) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(eventID) == "" {
		return event.Event{}, fmt.Errorf("event id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", eventID)
	evt, err := scanEventRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event by id: %w", err)
	}
	return evt, nil
}

// GetEventBySeq retrieves an event by its journal sequence.
func (s *Store) GetEventBySeq(ctx context.Context, seq int64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE seq = ?", seq)
	evt, err := scanEventRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event by seq: %w", err)
	}
	return evt, nil
}

// ListEvents returns events in journal order (seq ascending) after the
// given sequence.
func (s *Store) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]event.Event, error) {
	return s.listEvents(ctx, limit,
		"SELECT "+eventColumns+" FROM events WHERE seq > ? ORDER BY seq ASC LIMIT ?",
		afterSeq)
}

// ListEventsByType restricts ListEvents to one event type.
func (s *Store) ListEventsByType(ctx context.Context, eventType event.Type, afterSeq int64, limit int) ([]event.Event, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}
	return s.listEvents(ctx, limit,
		"SELECT "+eventColumns+" FROM events WHERE event_type = ? AND seq > ? ORDER BY seq ASC LIMIT ?",
		string(eventType), afterSeq)
}

// ListEventsByEntity restricts ListEvents to one stream.
func (s *Store) ListEventsByEntity(ctx context.Context, entityType, entityID string, afterSeq int64, limit int) ([]event.Event, error) {
	if strings.TrimSpace(entityType) == "" {
		return nil, fmt.Errorf("entity type is required")
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	return s.listEvents(ctx, limit,
		"SELECT "+eventColumns+" FROM events WHERE entity_type = ? AND entity_id = ? AND seq > ? ORDER BY seq ASC LIMIT ?",
		entityType, entityID, afterSeq)
}

func (s *Store) listEvents(ctx context.Context, limit int, query string, args ...any) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	args = append(args, limit)
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows, limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// LatestEventSeq returns the highest journal sequence, 0 when empty.
func (s *Store) LatestEventSeq(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var seq int64
	if err := s.sqlDB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events").Scan(&seq); err != nil {
		return 0, fmt.Errorf("get latest event seq: %w", err)
	}
	return seq, nil
}

// ListEventsPage returns a filtered, paginated journal read ordered by
// occurred-at with seq as the deterministic tie-break.
func (s *Store) ListEventsPage(ctx context.Context, req storage.EventPageRequest) (storage.EventPageResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventPageResult{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EventPageResult{}, fmt.Errorf("storage is not configured")
	}
	if req.PageSize <= 0 {
		req.PageSize = 50
	}
	if req.PageSize > 200 {
		req.PageSize = 200
	}

	plan := buildListEventsPageSQLPlan(req)

	query := fmt.Sprintf(
		"SELECT %s FROM events WHERE %s %s %s",
		eventColumns,
		plan.whereClause,
		plan.orderClause,
		plan.limitClause,
	)

	rows, err := s.sqlDB.QueryContext(ctx, query, plan.params...)
	if err != nil {
		return storage.EventPageResult{}, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows, req.PageSize+1)
	if err != nil {
		return storage.EventPageResult{}, err
	}

	hasMore := len(events) > req.PageSize
	if hasMore {
		events = events[:req.PageSize]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", plan.countWhereClause)
	var totalCount int
	if err := s.sqlDB.QueryRowContext(ctx, countQuery, plan.countParams...).Scan(&totalCount); err != nil {
		return storage.EventPageResult{}, fmt.Errorf("count events: %w", err)
	}

	return storage.EventPageResult{
		Events:      events,
		HasNextPage: hasMore,
		TotalCount:  totalCount,
	}, nil
}

// Row scanning helpers

type eventRow struct {
	Seq         int64
	ID          string
	EventType   string
	OccurredAt  int64
	Source      string
	EntityType  string
	EntityID    string
	PayloadJSON []byte
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEventRow(scanner rowScanner) (event.Event, error) {
	var row eventRow
	if err := scanner.Scan(
		&row.Seq,
		&row.ID,
		&row.EventType,
		&row.OccurredAt,
		&row.Source,
		&row.EntityType,
		&row.EntityID,
		&row.PayloadJSON,
	); err != nil {
		return event.Event{}, err
	}
	return eventRowToDomain(row), nil
}

func eventRowToDomain(row eventRow) event.Event {
	return event.Event{
		ID:          row.ID,
		Seq:         row.Seq,
		Type:        event.Type(row.EventType),
		OccurredAt:  fromMillis(row.OccurredAt),
		Source:      event.Source(row.Source),
		EntityType:  row.EntityType,
		EntityID:    row.EntityID,
		PayloadJSON: row.PayloadJSON,
	}
}

// collectEvents drains a result set into domain events. A row that fails the
// envelope sanity check is logged and skipped so one corrupt record cannot
// take down a whole replay.
func collectEvents(rows *sql.Rows, capacity int) ([]event.Event, error) {
	events := make([]event.Event, 0, capacity)
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(
			&row.Seq,
			&row.ID,
			&row.EventType,
			&row.OccurredAt,
			&row.Source,
			&row.EntityType,
			&row.EntityID,
			&row.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if reason, ok := corruptEventReason(row); ok {
			log.Printf("skipping corrupt event seq=%d id=%s: %s", row.Seq, row.ID, reason)
			continue
		}
		events = append(events, eventRowToDomain(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// corruptEventReason reports why a stored row cannot be decoded into a
// usable event, if it cannot.
func corruptEventReason(row eventRow) (string, bool) {
	if row.EventType == "" {
		return "missing event type", true
	}
	if row.OccurredAt <= 0 {
		return "missing occurred-at", true
	}
	if len(row.PayloadJSON) > 0 && !json.Valid(row.PayloadJSON) {
		return "payload is not valid JSON", true
	}
	return "", false
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
