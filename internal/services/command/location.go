package command

import (
	"strings"

	"github.com/icewright/icewright/internal/domain/storage"
	"github.com/icewright/icewright/internal/domain/tabular"
)

// backendPrefix derives the table/view's root storage prefix from its current
// metadata file location (".../metadata/NNN-uuid.metadata.json" -> "...").
func backendPrefix(row *tabular.Tabular) storage.Location {
	loc := row.CurrentMetadataLocation

	if idx := strings.LastIndex(loc, "/metadata/"); idx >= 0 {
		return storage.Location(loc[:idx])
	}

	return storage.Location(loc)
}
