package board

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/antonio59/standard-notes-kanban/domain"
)

// bindings maps ids to the elements that accept gestures. They are rebuilt on
// every render; elements from a previous render are never bound.
type bindings struct {
	cards   map[string][]*html.Node
	columns map[string]*html.Node
	order   []string
}

func newBindings() *bindings {
	return &bindings{cards: make(map[string][]*html.Node), columns: make(map[string]*html.Node)}
}

// card returns the bound card for noteID. When columnID is set only a card
// currently inside that column matches.
func (b *bindings) card(noteID, columnID string) *html.Node {
	for _, c := range b.cards[noteID] {
		if columnID == "" {
			return c
		}
		if col := closest(c, classColumn); col != nil {
			if id, _ := attr(col, attrColumnID); id == columnID {
				return c
			}
		}
	}
	return nil
}

func (b *bindings) column(columnID string) *html.Node {
	return b.columns[columnID]
}

// Renderer builds the board tree.
type Renderer struct {
	Policy domain.MembershipPolicy
}

// Render destroys root's children and rebuilds one column per entry of
// columns, each holding a card for every note the policy places in it.
func (r Renderer) Render(root *html.Node, notes []domain.Note, columns []domain.Column) *bindings {
	clearChildren(root)
	b := newBindings()

	for _, col := range columns {
		colEl := element(atom.Div, classColumn, html.Attribute{Key: attrColumnID, Val: col.ID})
		heading := element(atom.H2, "")
		heading.AppendChild(text(col.Title))
		colEl.AppendChild(heading)
		container := element(atom.Div, classCards)
		colEl.AppendChild(container)
		root.AppendChild(colEl)

		b.columns[col.ID] = colEl
		b.order = append(b.order, col.ID)

		for _, n := range notes {
			if !r.Policy.Belongs(n, col.ID) {
				continue
			}
			card := element(atom.Div, classCard,
				html.Attribute{Key: attrDraggable, Val: "true"},
				html.Attribute{Key: attrNoteID, Val: n.ID},
			)
			card.AppendChild(text(n.DisplayTitle()))
			container.AppendChild(card)
			b.cards[n.ID] = append(b.cards[n.ID], card)
		}
	}
	return b
}

// NewRoot returns an empty board container.
func NewRoot() *html.Node {
	return element(atom.Div, "", html.Attribute{Key: "id", Val: boardElementID})
}
