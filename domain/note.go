package domain

import (
	"encoding/json"
	"strings"
)

// TagPrefix marks a tag as a board column designator.
const TagPrefix = "kanban:"

// UntitledNote is shown on cards whose note has no title.
const UntitledNote = "Untitled Note"

// Tag is a resolved host tag. ID is empty for tags the host has not created yet.
type Tag struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// IsColumn reports whether the tag designates a board column.
func (t Tag) IsColumn() bool {
	return strings.HasPrefix(t.Title, TagPrefix)
}

// Note is the local copy of a host note.
type Note struct {
	ID          string          `json:"id"`
	ContentType string          `json:"contentType"`
	Title       string          `json:"title,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Tags        []Tag           `json:"tags"`
	CreatedAt   string          `json:"createdAt,omitempty"` // as sent by the host
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

// DisplayTitle returns the card label for the note.
func (n Note) DisplayTitle() string {
	if n.Title == "" {
		return UntitledNote
	}
	return n.Title
}

// ColumnTags returns the note's reserved-prefix tags in tag order.
func (n Note) ColumnTags() []Tag {
	var out []Tag
	for _, t := range n.Tags {
		if t.IsColumn() {
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether any of the note's tags carries the given title.
func (n Note) HasTag(title string) bool {
	for _, t := range n.Tags {
		if t.Title == title {
			return true
		}
	}
	return false
}

// FindNote returns the note with the given id.
func FindNote(notes []Note, id string) (Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// ReplaceNote returns a copy of notes with the note sharing updated's id swapped out.
func ReplaceNote(notes []Note, updated Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		if n.ID == updated.ID {
			out[i] = updated
			continue
		}
		out[i] = n
	}
	return out
}
