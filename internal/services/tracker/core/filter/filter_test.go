package filter

import (
	"reflect"
	"testing"

	apperrors "github.com/skylog-dev/skylog/internal/platform/errors"
)

func TestParseEventFilter_Translations(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
	}{
		{
			name:   "empty filter",
			filter: "   ",
		},
		{
			name:       "type equality",
			filter:     `type = "comment.added"`,
			wantClause: "event_type = ?",
			wantParams: []any{"comment.added"},
		},
		{
			name:       "entity scope",
			filter:     `entity_type = "aircraft" AND entity_id = "abc123"`,
			wantClause: "(entity_type = ? AND entity_id = ?)",
			wantParams: []any{"aircraft", "abc123"},
		},
		{
			name:       "timestamp window in millis",
			filter:     `ts >= timestamp("2026-04-02T00:00:00Z") AND ts < timestamp("2026-04-03T00:00:00Z")`,
			wantClause: "(occurred_at >= ? AND occurred_at < ?)",
			wantParams: []any{int64(1775088000000), int64(1775174400000)},
		},
		{
			name:       "source union",
			filter:     `source = "ingest" OR source = "user"`,
			wantClause: "(source = ? OR source = ?)",
			wantParams: []any{"ingest", "user"},
		},
		{
			name:       "negated type",
			filter:     `type != "aircraft.position_updated"`,
			wantClause: "event_type != ?",
			wantParams: []any{"aircraft.position_updated"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseEventFilter(%q) error = %v", tt.filter, err)
			}
			if got.Clause != tt.wantClause {
				t.Fatalf("clause = %q, want %q", got.Clause, tt.wantClause)
			}
			if !reflect.DeepEqual(got.Params, tt.wantParams) {
				t.Fatalf("params = %#v, want %#v", got.Params, tt.wantParams)
			}
		})
	}
}

func TestParseEventFilter_RejectsUnknownAndMalformed(t *testing.T) {
	tests := []struct {
		name   string
		filter string
	}{
		{"unknown field", `altitude > 1000`},
		{"unbalanced parens", `((("`},
		{"bad timestamp", `ts >= timestamp("not-a-time")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEventFilter(tt.filter)
			if err == nil {
				t.Fatalf("ParseEventFilter(%q) error = nil, want rejection", tt.filter)
			}
			if got := apperrors.CategoryOf(err); got != apperrors.CategoryInvalidArgument {
				t.Fatalf("ParseEventFilter(%q) category = %s, want %s", tt.filter, got, apperrors.CategoryInvalidArgument)
			}
		})
	}
}
