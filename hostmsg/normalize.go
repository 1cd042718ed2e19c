package hostmsg

import (
	"github.com/antonio59/standard-notes-kanban/domain"
)

// NormalizeNotes keeps the Note items of a host collection and resolves their
// tag references against the Tag items of the same collection. References that
// do not resolve are dropped.
func NormalizeNotes(items []Item) []domain.Note {
	tags := make(map[string]domain.Tag)
	for _, it := range items {
		if it.ContentType != ContentTypeTag || it.UUID == "" {
			continue
		}
		if _, dup := tags[it.UUID]; dup {
			continue
		}
		title := it.Title
		if title == "" {
			title = it.ContentTitle()
		}
		tags[it.UUID] = domain.Tag{ID: it.UUID, Title: title}
	}

	notes := make([]domain.Note, 0, len(items))
	for _, it := range items {
		if it.ContentType != ContentTypeNote {
			continue
		}
		note := domain.Note{
			ID:          it.UUID,
			ContentType: it.ContentType,
			Title:       it.ContentTitle(),
			Content:     it.Content,
			Tags:        make([]domain.Tag, 0, len(it.Tags)),
			CreatedAt:   it.CreatedAt,
			UpdatedAt:   it.UpdatedAt,
		}
		for _, ref := range it.Tags {
			if t, ok := tags[ref.UUID]; ok {
				note.Tags = append(note.Tags, t)
			}
		}
		notes = append(notes, note)
	}
	return notes
}
