package board

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/antonio59/standard-notes-kanban/bridge"
	"github.com/antonio59/standard-notes-kanban/domain"
)

var (
	// ErrUnknownCard is returned when a gesture names a card that is not on the board.
	ErrUnknownCard = errors.New("unknown card")
	// ErrUnknownColumn is returned when a gesture names a column that is not on the board.
	ErrUnknownColumn = errors.New("unknown column")
)

const tracerName = "github.com/antonio59/standard-notes-kanban/board"

// Outcome describes what a drop did.
type Outcome string

const (
	OutcomeMoved        Outcome = "moved"
	OutcomeSameColumn   Outcome = "same-column"
	OutcomeNoActiveDrag Outcome = "no-active-drag"
	OutcomeNoteNotFound Outcome = "note-not-found"
)

// Saver persists notes with the host.
type Saver interface {
	SaveItems(ctx context.Context, notes []domain.Note) error
}

// Gestures is the drag-and-drop surface of the board.
type Gestures interface {
	BeginDrag(noteID, fromColumn string) error
	DragOver(columnID string) error
	DragLeave(columnID string) error
	DropOn(ctx context.Context, columnID, dragData string) (Outcome, error)
	EndDrag() bool
}

// Controller applies drag gestures to a session.
type Controller struct {
	session *Session
	saver   Saver
	logger  *log.Logger
}

var _ Gestures = (*Controller)(nil)

// NewController creates a controller saving through saver.
func NewController(s *Session, saver Saver, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{session: s, saver: saver, logger: logger}
}

// BeginDrag marks the card for noteID as dragged and stores its id as drag
// data. fromColumn disambiguates notes shown in several columns.
func (c *Controller) BeginDrag(noteID, fromColumn string) error {
	card := c.session.bound.card(noteID, fromColumn)
	if card == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCard, noteID)
	}
	if c.session.marked != nil && c.session.marked != card {
		removeClass(c.session.marked, classDragging)
	}
	c.session.active = card
	c.session.marked = card
	c.session.dragData = noteID
	addClass(card, classDragging)
	c.logger.WithField("note_id", noteID).Debug("drag start")
	return nil
}

// DragOver applies the hover cue to a column. It also serves dragenter.
func (c *Controller) DragOver(columnID string) error {
	col := c.session.bound.column(columnID)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	addClass(col, classDragOver)
	return nil
}

// DragLeave clears the hover cue of a column.
func (c *Controller) DragLeave(columnID string) error {
	col := c.session.bound.column(columnID)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	removeClass(col, classDragOver)
	return nil
}

// DropOn moves the dragged card into columnID. dragData carries the note id;
// when empty the id stored by BeginDrag is used. The card and the local
// collection are updated without waiting for the host; a failed save is
// logged and does not undo the move.
func (c *Controller) DropOn(ctx context.Context, columnID, dragData string) (Outcome, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "board.drop",
		trace.WithAttributes(attribute.String("board.column_id", columnID)))
	defer span.End()

	s := c.session
	col := s.bound.column(columnID)
	if col == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	s.clearHover()

	if s.active == nil {
		span.SetAttributes(attribute.String("board.outcome", string(OutcomeNoActiveDrag)))
		return OutcomeNoActiveDrag, nil
	}
	dragged := s.active
	s.active = nil

	noteID := dragData
	if noteID == "" {
		noteID = s.dragData
	}
	sourceID := ""
	if src := closest(dragged.Parent, classColumn); src != nil {
		sourceID, _ = attr(src, attrColumnID)
	}
	span.SetAttributes(attribute.String("board.note_id", noteID), attribute.String("board.source_column_id", sourceID))
	c.logger.WithFields(log.Fields{"note_id": noteID, "column_id": columnID, "source_column_id": sourceID}).Debug("drop")

	if columnID == sourceID {
		span.SetAttributes(attribute.String("board.outcome", string(OutcomeSameColumn)))
		return OutcomeSameColumn, nil
	}

	note, ok := domain.FindNote(s.notes, noteID)
	if !ok {
		c.logger.Errorf("note with id %s not found in local data", noteID)
		span.SetAttributes(attribute.String("board.outcome", string(OutcomeNoteNotFound)))
		return OutcomeNoteNotFound, nil
	}

	updated := domain.MoveToColumn(note, columnID, s.notes)

	if err := c.save(ctx, updated); err != nil {
		if errors.Is(err, bridge.ErrChannelNotReady) {
			c.logger.Error("host channel not initialized, cannot save changes")
		} else {
			c.logger.Errorf("save note %s: %v", noteID, err)
		}
		span.RecordError(err)
	}

	if container := firstChildWithClass(col, classCards); container != nil {
		moveNode(container, dragged)
	}
	s.notes = domain.ReplaceNote(s.notes, updated)

	span.SetAttributes(attribute.String("board.outcome", string(OutcomeMoved)))
	return OutcomeMoved, nil
}

func (c *Controller) save(ctx context.Context, n domain.Note) error {
	if c.saver == nil {
		return bridge.ErrChannelNotReady
	}
	return c.saver.SaveItems(ctx, []domain.Note{n})
}

// EndDrag clears the dragging mark and any hover cue and forgets the dragged
// card, whether or not a drop happened. It reports whether the tree changed.
func (c *Controller) EndDrag() bool {
	s := c.session
	changed := s.clearHover()
	if s.marked != nil && hasClass(s.marked, classDragging) {
		removeClass(s.marked, classDragging)
		changed = true
	}
	s.marked = nil
	s.active = nil
	s.dragData = ""
	c.logger.Debug("drag end")
	return changed
}
