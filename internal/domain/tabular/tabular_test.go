package tabular

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestIsVisibleDefaultFlags checks the plain list case: active, unstaged rows are
// visible; staged and soft-deleted rows are not unless asked for.
func TestIsVisibleDefaultFlags(t *testing.T) {
	active := Tabular{}
	assert.True(t, active.IsVisible(false, false))

	staged := Tabular{Staged: true}
	assert.False(t, staged.IsVisible(false, false))
	assert.True(t, staged.IsVisible(true, false))

	deletedAt := time.Now()
	deleted := Tabular{DeletedAt: &deletedAt}
	assert.True(t, deleted.IsSoftDeleted())
	assert.False(t, deleted.IsVisible(false, false))
	assert.True(t, deleted.IsVisible(false, true))
}

// TestUndropRestoresVisibility mirrors spec.md §8 scenario S3's ListTables-sees-it-
// again half: clearing DeletedAt is enough to make a previously soft-deleted row
// visible to a default (non-include-deleted) list again.
func TestUndropRestoresVisibility(t *testing.T) {
	deletedAt := time.Now()
	row := Tabular{DeletedAt: &deletedAt}
	assert.False(t, row.IsVisible(false, false))

	row.DeletedAt = nil

	assert.False(t, row.IsSoftDeleted())
	assert.True(t, row.IsVisible(false, false))
}

// TestIdentCaseFoldKey checks that namespace-qualified idents that differ only in case
// collide on their fold key but keep distinct display names.
func TestIdentCaseFoldKey(t *testing.T) {
	a := Ident{Namespace: []string{"db"}, Name: "Orders"}
	b := Ident{Namespace: []string{"DB"}, Name: "orders"}

	assert.Equal(t, a.CaseFoldKey(), b.CaseFoldKey())
	assert.NotEqual(t, a.String(), b.String())
	assert.Equal(t, "db.Orders", a.String())
}
