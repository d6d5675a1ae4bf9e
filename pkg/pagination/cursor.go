// Package pagination implements the opaque page-token cursor used by every list
// endpoint (spec.md §3 "Page token", §4.2 list-namespaces/list-tabulars). Grounded on
// midaz's pkg/net/http/cursor_test.go: a base64-encoded JSON envelope applied to a
// squirrel SelectBuilder as a keyset predicate, fetching one row more than requested
// so the caller can tell whether a further page exists.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Cursor is the decoded form of a page token: the id of the last row consumed by the
// previous page, and whether this cursor should be walked forward (PointsNext) or
// backward.
type Cursor struct {
	ID         string `json:"id"`
	PointsNext bool   `json:"points_next"`
}

// CreateCursor builds a Cursor for the given row id.
func CreateCursor(id string, pointsNext bool) Cursor {
	return Cursor{ID: id, PointsNext: pointsNext}
}

// Encode renders a Cursor as an opaque page token.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("pagination: encode cursor: %w", err)
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeCursor parses an opaque page token back into a Cursor. An empty token decodes
// to a forward Cursor with no id (first page).
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{PointsNext: true}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("pagination: invalid page token: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("pagination: invalid page token payload: %w", err)
	}

	return c, nil
}

// ApplyCursorPagination adds the keyset predicate and ORDER BY/LIMIT clauses for the
// given cursor to a query, ordering on `id` ASC/DESC, fetching one extra
// row (limit+1) so the caller can detect a following page without a second query.
// Returns the rewritten query and the effective order direction ("ASC"/"DESC").
func ApplyCursorPagination(query squirrel.SelectBuilder, cursor Cursor, orderDirection string, limit int) (squirrel.SelectBuilder, string) {
	effectiveOrder := orderDirection

	if cursor.ID != "" {
		op := ">"
		if orderDirection == "DESC" {
			op = "<"
		}

		if !cursor.PointsNext {
			// Walking backward inverts both the comparison and the sort order; the
			// caller re-reverses the returned rows back to display order.
			if op == ">" {
				op = "<"
				effectiveOrder = "DESC"
			} else {
				op = ">"
				effectiveOrder = "ASC"
			}
		}

		query = query.Where(squirrel.Expr("id "+op+" ?", cursor.ID))
	}

	query = query.OrderBy("id " + effectiveOrder).Limit(uint64(limit + 1))

	return query, effectiveOrder
}

// PaginateRecords trims a fetched slice (which may contain one extra look-ahead row)
// down to at most limit items, and reverses them when the query walked backward
// (!forward) so they come back in the caller's display order.
func PaginateRecords[T any](hasMore, firstPage, forward bool, items []T, limit int, orderDirection string) []T {
	if len(items) > limit {
		items = items[:limit]
	}

	if !forward {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	return items
}
