package domain

// LookupTag returns a tag titled title carried by any note. A tag the host
// already created, one with an id, wins over a title-only one.
func LookupTag(notes []Note, title string) (Tag, bool) {
	var found Tag
	ok := false
	for _, n := range notes {
		for _, t := range n.Tags {
			if t.Title != title {
				continue
			}
			if t.ID != "" {
				return t, true
			}
			if !ok {
				found, ok = t, true
			}
		}
	}
	return found, ok
}

// MoveToColumn returns a copy of n whose column tags are replaced by a single
// tag for columnID. Non-column tags keep their order. The new tag reuses the id
// of an existing tag with the same title from notes so the host does not create
// a duplicate; otherwise it is title-only.
func MoveToColumn(n Note, columnID string, notes []Note) Note {
	tags := make([]Tag, 0, len(n.Tags)+1)
	for _, t := range n.Tags {
		if !t.IsColumn() {
			tags = append(tags, t)
		}
	}

	target := Tag{Title: columnID}
	if existing, ok := LookupTag(notes, columnID); ok {
		target.ID = existing.ID
	}
	tags = append(tags, target)

	moved := n
	moved.Tags = tags
	return moved
}
