package sqlite

import (
	"fmt"
	"strings"

	"github.com/skylog-dev/skylog/internal/services/tracker/storage"
)

type listEventsPageSQLPlan struct {
	whereClause      string
	params           []any
	orderClause      string
	limitClause      string
	countWhereClause string
	countParams      []any
}

func buildListEventsPageSQLPlan(req storage.EventPageRequest) listEventsPageSQLPlan {
	whereClause := "1 = 1"
	params := []any{}

	if len(req.Types) > 0 {
		placeholders := strings.Repeat("?, ", len(req.Types))
		whereClause += " AND event_type IN (" + placeholders[:len(placeholders)-2] + ")"
		for _, t := range req.Types {
			params = append(params, string(t))
		}
	}
	if req.EntityType != "" {
		whereClause += " AND entity_type = ?"
		params = append(params, req.EntityType)
	}
	if req.EntityID != "" {
		whereClause += " AND entity_id = ?"
		params = append(params, req.EntityID)
	}
	if req.From != nil {
		whereClause += " AND occurred_at >= ?"
		params = append(params, toMillis(*req.From))
	}
	if req.To != nil {
		whereClause += " AND occurred_at <= ?"
		params = append(params, toMillis(*req.To))
	}
	if req.FilterClause != "" {
		whereClause += " AND " + req.FilterClause
		params = append(params, req.FilterParams...)
	}

	// The count ignores the cursor so TotalCount reflects the whole filter.
	countWhereClause := whereClause
	countParams := make([]any, len(params))
	copy(countParams, params)

	if req.AfterSeq > 0 {
		whereClause += " AND seq > ?"
		params = append(params, req.AfterSeq)
	}

	// Occurred-at is the authoritative order; seq breaks ties deterministically.
	orderClause := "ORDER BY occurred_at ASC, seq ASC"
	if req.Descending {
		orderClause = "ORDER BY occurred_at DESC, seq DESC"
	}

	return listEventsPageSQLPlan{
		whereClause:      whereClause,
		params:           params,
		orderClause:      orderClause,
		limitClause:      fmt.Sprintf("LIMIT %d", req.PageSize+1),
		countWhereClause: countWhereClause,
		countParams:      countParams,
	}
}
