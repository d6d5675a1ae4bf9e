// Package namespace holds the Namespace entity (spec.md §3, §4.2).
package namespace

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxDepth is the hard cap on namespace path segment count (spec.md §3).
const MaxDepth = 16

// ReservedProperties may not be set directly by clients on namespace create/update
// (spec.md §3: "certain reserved properties are rejected at write").
var ReservedProperties = map[string]struct{}{
	"location":   {},
	"exists":     {},
	"__internal": {},
}

// Ident is the case-preserving, case-insensitively-unique public identifier for a
// namespace: an ordered, non-empty list of path segments.
type Ident struct {
	Segments []string
}

// NewIdent validates and constructs an Ident.
func NewIdent(segments []string) (Ident, error) {
	if len(segments) == 0 {
		return Ident{}, ErrEmptyIdent
	}

	if len(segments) > MaxDepth {
		return Ident{}, ErrDepthExceeded
	}

	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return Ident{}, ErrEmptySegment
		}
	}

	return Ident{Segments: append([]string{}, segments...)}, nil
}

// CaseFoldKey returns the case-insensitive comparison key for this identifier, used
// for uniqueness checks while the original case is preserved in Segments.
func (i Ident) CaseFoldKey() string {
	folded := make([]string, len(i.Segments))
	for idx, s := range i.Segments {
		folded[idx] = strings.ToLower(s)
	}

	return strings.Join(folded, "\x1f")
}

func (i Ident) String() string { return strings.Join(i.Segments, ".") }

// Depth returns the number of path segments.
func (i Ident) Depth() int { return len(i.Segments) }

// ParentIdent returns the identifier for this namespace's direct parent, and false if
// this is a root (depth-1) namespace.
func (i Ident) ParentIdent() (Ident, bool) {
	if len(i.Segments) <= 1 {
		return Ident{}, false
	}

	return Ident{Segments: i.Segments[:len(i.Segments)-1]}, true
}

// Namespace is a node in the per-warehouse namespace tree.
type Namespace struct {
	ID          uuid.UUID
	WarehouseID uuid.UUID
	ParentID    *uuid.UUID
	Ident       Ident
	Properties  map[string]string
	Protected   bool
	CreatedAt   time.Time
}

// ValidateProperties rejects any reserved property key (spec.md §3).
func ValidateProperties(props map[string]string) error {
	for k := range props {
		if _, reserved := ReservedProperties[strings.ToLower(k)]; reserved {
			return ErrReservedProperty
		}
	}

	return nil
}
