package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

// StatisticsStore methods

// GetTrackerStatistics returns aggregate counts for status tooling. When
// since is nil, counts are for all time.
func (s *Store) GetTrackerStatistics(ctx context.Context, since *time.Time) (storage.TrackerStatistics, error) {
	if err := ctx.Err(); err != nil {
		return storage.TrackerStatistics{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.TrackerStatistics{}, fmt.Errorf("storage is not configured")
	}

	var sinceMillis int64
	if since != nil {
		sinceMillis = toMillis(*since)
	}

	var stats storage.TrackerStatistics
	counts := []struct {
		dest  *int64
		query string
	}{
		{&stats.EventCount, "SELECT COUNT(*) FROM events WHERE occurred_at >= ?"},
		{&stats.CommentCount, "SELECT COUNT(*) FROM comments WHERE is_deleted = 0 AND created_at >= ?"},
		{&stats.FavouriteCount, "SELECT COUNT(*) FROM favourites WHERE created_at >= ?"},
		{&stats.AircraftCount, "SELECT COUNT(*) FROM aircraft_state WHERE first_seen_at >= ?"},
		{&stats.PresentAircraftCount, "SELECT COUNT(*) FROM aircraft_state WHERE present = 1 AND first_seen_at >= ?"},
	}
	for _, c := range counts {
		if err := s.sqlDB.QueryRowContext(ctx, c.query, sinceMillis).Scan(c.dest); err != nil {
			return storage.TrackerStatistics{}, fmt.Errorf("count tracker statistics: %w", err)
		}
	}
	return stats, nil
}
