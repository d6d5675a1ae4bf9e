package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/identity"
	"github.com/icewright/icewright/pkg/pagination"
)

// row is a minimal listable item for exercising AuthFilteredList without pulling in a
// concrete domain type.
type row struct{ id int }

// hidingAuthorizer hides every row whose id is in its hidden set — the fake that
// stands in for a real Authorizer across all pagination tests.
type hidingAuthorizer struct{ hidden map[int]bool }

func (a hidingAuthorizer) CanIncludeInList(_ context.Context, _ identity.Actor, obj authz.Object) (bool, error) {
	id := obj.ID[0] // rows encode their int id in the first UUID byte, see rowObject
	return !a.hidden[int(id)], nil
}

var _ authz.Authorizer = hidingAuthorizer{}

func (a hidingAuthorizer) Check(context.Context, identity.Actor, authz.Action, authz.Object) error {
	return nil
}

func (a hidingAuthorizer) AssumableRoles(context.Context, identity.Actor) ([]identity.AssumableRole, error) {
	return nil, nil
}

func rowObject(r row) authz.Object {
	var id uuid.UUID
	id[0] = byte(r.id)
	return authz.Object{Kind: "row", ID: id}
}

func rowID(r row) string { return fmt.Sprint(r.id) }

// fetchRows simulates a repository holding rows 0..n-1 in id order, serving afterID +
// limit look-ahead pages the way a SQL keyset query would.
func fetchRows(n int) FetchPage[row] {
	return func(_ context.Context, afterID string, limit int) ([]row, error) {
		start := 0

		if afterID != "" {
			var after int

			if _, err := fmt.Sscanf(afterID, "%d", &after); err != nil {
				return nil, err
			}

			start = after + 1
		}

		var out []row

		for i := start; i < n && len(out) < limit; i++ {
			out = append(out, row{id: i})
		}

		return out, nil
	}
}

// TestAuthFilteredListHidesMiddleRows mirrors spec.md §8 scenario S2: 20 rows, ids
// 5..15 hidden, page size 5. Page 1 must be {0..4}, page 2 must be {16..19} with no
// further page.
func TestAuthFilteredListHidesMiddleRows(t *testing.T) {
	hidden := map[int]bool{}
	for i := 5; i <= 15; i++ {
		hidden[i] = true
	}

	authorizer := hidingAuthorizer{hidden: hidden}
	fetch := fetchRows(20)
	ctx := context.Background()
	actor := identity.Actor{}

	page1, err := AuthFilteredList(ctx, actor, authorizer, fetch, rowObject, rowID, pagination.Cursor{PointsNext: true}, 5)
	require.NoError(t, err)

	got1 := idsOf(page1.Items)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got1)
	require.NotEmpty(t, page1.NextPageToken)

	cursor2, err := pagination.DecodeCursor(page1.NextPageToken)
	require.NoError(t, err)

	page2, err := AuthFilteredList(ctx, actor, authorizer, fetch, rowObject, rowID, cursor2, 5)
	require.NoError(t, err)

	got2 := idsOf(page2.Items)
	assert.Equal(t, []int{16, 17, 18, 19}, got2)
	assert.Empty(t, page2.NextPageToken, "no third page should exist")
}

// TestAuthFilteredListNoHiding checks the plain, nothing-hidden case: pages divide
// rows exactly on `limit`, and the last page carries no next-page token.
func TestAuthFilteredListNoHiding(t *testing.T) {
	authorizer := hidingAuthorizer{hidden: map[int]bool{}}
	fetch := fetchRows(6)
	ctx := context.Background()
	actor := identity.Actor{}

	page1, err := AuthFilteredList(ctx, actor, authorizer, fetch, rowObject, rowID, pagination.Cursor{PointsNext: true}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, idsOf(page1.Items))
	require.NotEmpty(t, page1.NextPageToken)

	cursor2, err := pagination.DecodeCursor(page1.NextPageToken)
	require.NoError(t, err)

	page2, err := AuthFilteredList(ctx, actor, authorizer, fetch, rowObject, rowID, cursor2, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, idsOf(page2.Items))
	assert.Empty(t, page2.NextPageToken)
}

// TestAuthFilteredListEverythingHidden checks that a fully-hidden warehouse returns an
// empty page, not an error or an infinite loop.
func TestAuthFilteredListEverythingHidden(t *testing.T) {
	hidden := map[int]bool{}
	for i := 0; i < 10; i++ {
		hidden[i] = true
	}

	authorizer := hidingAuthorizer{hidden: hidden}
	fetch := fetchRows(10)

	page, err := AuthFilteredList(context.Background(), identity.Actor{}, authorizer, fetch, rowObject, rowID, pagination.Cursor{PointsNext: true}, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextPageToken)
}

func idsOf(rows []row) []int {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.id
	}

	return ids
}
