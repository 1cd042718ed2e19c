package domain

import (
	"sort"
	"strings"
)

// DefaultColumns are used when no note carries a column tag.
var DefaultColumns = []string{"todo", "inprogress", "done"}

// Column is a derived board column. ID is the full reserved-prefix tag title.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ColumnID returns the tag title designating the named column.
func ColumnID(name string) string {
	return TagPrefix + name
}

// NewColumn builds a column from its reserved-prefix tag title.
func NewColumn(id string) Column {
	return Column{ID: id, Title: strings.TrimPrefix(id, TagPrefix)}
}

// DeriveColumns computes the board columns for the given notes. Column ids are
// unique and sorted; if no note carries a column tag the default columns are
// returned.
func DeriveColumns(notes []Note) []Column {
	seen := make(map[string]struct{})
	for _, n := range notes {
		for _, t := range n.Tags {
			if t.IsColumn() {
				seen[t.Title] = struct{}{}
			}
		}
	}

	if len(seen) == 0 {
		cols := make([]Column, 0, len(DefaultColumns))
		for _, name := range DefaultColumns {
			cols = append(cols, NewColumn(ColumnID(name)))
		}
		return cols
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cols := make([]Column, 0, len(ids))
	for _, id := range ids {
		cols = append(cols, NewColumn(id))
	}
	return cols
}
