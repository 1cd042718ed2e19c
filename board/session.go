package board

import (
	"golang.org/x/net/html"

	"github.com/antonio59/standard-notes-kanban/domain"
)

// Session holds the board state between host pushes: the note collection,
// the rendered tree and the gesture in progress. It is owned by a single
// goroutine.
type Session struct {
	renderer Renderer
	notes    []domain.Note
	root     *html.Node
	bound    *bindings

	active   *html.Node // card being dragged
	marked   *html.Node // card carrying the dragging class
	dragData string     // note id stored at drag start
}

// NewSession creates a session with an empty collection rendered into the
// default columns.
func NewSession(r Renderer) *Session {
	s := &Session{renderer: r, root: NewRoot()}
	s.Replace(nil)
	return s
}

// Replace swaps in a new note collection and rebuilds the board. Any gesture
// in progress is abandoned since its elements no longer exist.
func (s *Session) Replace(notes []domain.Note) {
	if notes == nil {
		notes = []domain.Note{}
	}
	s.notes = notes
	s.bound = s.renderer.Render(s.root, s.notes, domain.DeriveColumns(s.notes))
	s.active = nil
	s.marked = nil
	s.dragData = ""
}

// Notes returns a copy of the collection.
func (s *Session) Notes() []domain.Note {
	out := make([]domain.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Columns returns the columns currently on the board, in display order.
func (s *Session) Columns() []string {
	return append([]string(nil), s.bound.order...)
}

// Dragging reports whether a gesture is in progress.
func (s *Session) Dragging() bool {
	return s.active != nil
}

// HTML renders the board container.
func (s *Session) HTML() ([]byte, error) {
	return render(s.root)
}

// CardColumns returns the ids of the columns currently showing a card for noteID.
func (s *Session) CardColumns(noteID string) []string {
	var out []string
	for _, c := range s.bound.cards[noteID] {
		if col := closest(c, classColumn); col != nil {
			id, _ := attr(col, attrColumnID)
			out = append(out, id)
		}
	}
	return out
}

// clearHover removes the hover cue from every column and reports whether any
// column carried it.
func (s *Session) clearHover() bool {
	cleared := false
	for _, id := range s.bound.order {
		col := s.bound.columns[id]
		if hasClass(col, classDragOver) {
			removeClass(col, classDragOver)
			cleared = true
		}
	}
	return cleared
}
