// Package query implements the catalog's read-side operations, including the
// auth-filtered pagination engine (spec.md §4.3): a fetch-filter-refill loop that
// keeps pulling pages from the repository until it has accumulated `limit` rows the
// Authorizer will actually let the caller see, since the authorizer can hide an
// arbitrary number of rows per underlying page.
package query

import (
	"context"

	"github.com/icewright/icewright/internal/domain/authz"
	"github.com/icewright/icewright/internal/domain/identity"
	"github.com/icewright/icewright/pkg/pagination"
)

// foldState names where the fetch-filter-refill loop is in its look-ahead walk.
type foldState int

const (
	stateOpen foldState = iota
	stateLoopingForLastNextPage
	stateDone
)

// Page is the auth-filtered result of one ListXxx call: at most `limit` visible rows,
// plus an opaque token for the next page (empty when there is none).
type Page[T any] struct {
	Items         []T
	NextPageToken string
}

// FetchPage pulls one raw (unfiltered) page of up to limit+1 rows after afterID, in
// the repository's natural id order.
type FetchPage[T any] func(ctx context.Context, afterID string, limit int) ([]T, error)

// AuthFilteredList runs the fetch-filter-refill loop: repeatedly fetch raw pages,
// keep only rows CanIncludeInList allows, and refetch past any windows the authorizer
// emptied out, until `limit` visible rows are collected or the repository runs dry.
//
// The loop fetches limit+1 raw rows per round so it can look one row ahead: once
// `limit` rows are visible, a further visible row means there is a further page. If
// the look-ahead rows are hidden the loop fetches the next window; only when the
// repository runs dry first is this the last page, with NextPageToken left empty.
func AuthFilteredList[T any](
	ctx context.Context,
	actor identity.Actor,
	authorizer authz.Authorizer,
	fetch FetchPage[T],
	objectOf func(T) authz.Object,
	idOf func(T) string,
	cursor pagination.Cursor,
	limit int,
) (Page[T], error) {
	var (
		visible   []T
		afterID   = cursor.ID
		state     = stateOpen
		lastRawID string
	)

	for state != stateDone {
		raw, err := fetch(ctx, afterID, limit+1)
		if err != nil {
			return Page[T]{}, err
		}

		if len(raw) == 0 {
			state = stateDone
			break
		}

		for _, row := range raw {
			lastRawID = idOf(row)

			ok, err := authorizer.CanIncludeInList(ctx, actor, objectOf(row))
			if err != nil {
				return Page[T]{}, err
			}

			if !ok {
				continue
			}

			if len(visible) == limit {
				// This row survived filtering and is beyond `limit`: it's the
				// look-ahead row proving a further page exists.
				state = stateDone

				next, err := pagination.Encode(pagination.CreateCursor(idOf(visible[len(visible)-1]), true))
				if err != nil {
					return Page[T]{}, err
				}

				return Page[T]{Items: visible, NextPageToken: next}, nil
			}

			visible = append(visible, row)
		}

		if len(raw) <= limit {
			// The repository ran out of raw rows in one round without us ever
			// exceeding `limit` visible — no further page, regardless of how much
			// filtering happened.
			state = stateDone
			break
		}

		// Still under `limit` visible after a full limit+1 raw page: the authorizer
		// hid enough rows that we must refetch the next window before we know
		// whether a next page exists (stateLoopingForLastNextPage).
		state = stateLoopingForLastNextPage
		afterID = lastRawID
	}

	return Page[T]{Items: visible}, nil
}
