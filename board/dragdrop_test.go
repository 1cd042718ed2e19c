package board

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/antonio59/standard-notes-kanban/bridge"
	"github.com/antonio59/standard-notes-kanban/domain"
)

type recordingSaver struct {
	saved [][]domain.Note
	err   error
}

func (r *recordingSaver) SaveItems(_ context.Context, notes []domain.Note) error {
	r.saved = append(r.saved, notes)
	return r.err
}

func sampleNotes() []domain.Note {
	return []domain.Note{
		{ID: "n1", Title: "Write spec", Tags: []domain.Tag{{ID: "a", Title: "A"}, {ID: "todo", Title: "kanban:todo"}}},
		{ID: "n2", Title: "Ship it", Tags: []domain.Tag{{ID: "done", Title: "kanban:done"}}},
	}
}

func newTestController(t *testing.T, saver Saver) (*Controller, *Session, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	s := NewSession(Renderer{})
	s.Replace(sampleNotes())
	return NewController(s, saver, logger), s, hook
}

func TestDropOnOtherColumnMovesCardAndSaves(t *testing.T) {
	saver := &recordingSaver{}
	c, s, _ := newTestController(t, saver)
	ctx := context.Background()

	if err := c.BeginDrag("n1", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := c.DragOver("kanban:done"); err != nil {
		t.Fatalf("dragover: %v", err)
	}
	outcome, err := c.DropOn(ctx, "kanban:done", "n1")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	c.EndDrag()

	if outcome != OutcomeMoved {
		t.Fatalf("expected moved, got %s", outcome)
	}
	wantTags := []domain.Tag{{ID: "a", Title: "A"}, {ID: "done", Title: "kanban:done"}}
	if len(saver.saved) != 1 || len(saver.saved[0]) != 1 || !reflect.DeepEqual(saver.saved[0][0].Tags, wantTags) {
		t.Fatalf("unexpected save %+v", saver.saved)
	}
	note, _ := domain.FindNote(s.Notes(), "n1")
	if !reflect.DeepEqual(note.Tags, wantTags) {
		t.Fatalf("local note not updated: %+v", note.Tags)
	}
	if got := s.CardColumns("n1"); len(got) != 1 || got[0] != "kanban:done" {
		t.Fatalf("card not moved, in %v", got)
	}
	card := s.bound.card("n1", "")
	if hasClass(card, classDragging) {
		t.Fatal("dragging mark not cleared")
	}
	if hasClass(s.bound.column("kanban:done"), classDragOver) {
		t.Fatal("hover cue not cleared")
	}
	if s.Dragging() {
		t.Fatal("active drag not reset")
	}
}

func TestDropOnSameColumnIsNoop(t *testing.T) {
	saver := &recordingSaver{}
	c, s, _ := newTestController(t, saver)
	before := s.Notes()

	if err := c.BeginDrag("n1", "kanban:todo"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	outcome, err := c.DropOn(context.Background(), "kanban:todo", "")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}

	if outcome != OutcomeSameColumn {
		t.Fatalf("expected same-column, got %s", outcome)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("expected no save, got %+v", saver.saved)
	}
	if !reflect.DeepEqual(s.Notes(), before) {
		t.Fatal("notes changed on same-column drop")
	}
}

func TestDropWithoutActiveDragIsIgnored(t *testing.T) {
	saver := &recordingSaver{}
	c, s, _ := newTestController(t, saver)
	if err := c.DragOver("kanban:done"); err != nil {
		t.Fatalf("dragover: %v", err)
	}

	outcome, err := c.DropOn(context.Background(), "kanban:done", "n1")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if outcome != OutcomeNoActiveDrag || len(saver.saved) != 0 {
		t.Fatalf("expected ignored drop, got %s with %d saves", outcome, len(saver.saved))
	}
	if hasClass(s.bound.column("kanban:done"), classDragOver) {
		t.Fatal("hover cue should be cleared even when the drop is ignored")
	}
}

func TestDropOfUnknownNoteLogsAndAborts(t *testing.T) {
	saver := &recordingSaver{}
	c, s, hook := newTestController(t, saver)
	before := s.Notes()

	if err := c.BeginDrag("n1", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	outcome, err := c.DropOn(context.Background(), "kanban:done", "ghost")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}

	if outcome != OutcomeNoteNotFound {
		t.Fatalf("expected note-not-found, got %s", outcome)
	}
	if len(saver.saved) != 0 || !reflect.DeepEqual(s.Notes(), before) {
		t.Fatal("state changed for unknown note")
	}
	if got := s.CardColumns("n1"); len(got) != 1 || got[0] != "kanban:todo" {
		t.Fatalf("card moved for unknown note: %v", got)
	}
	if e := hook.LastEntry(); e == nil || e.Level != log.ErrorLevel {
		t.Fatalf("expected error log, got %+v", e)
	}
}

func TestDropWithoutHostChannelStillMoves(t *testing.T) {
	logger, hook := test.NewNullLogger()
	b := bridge.New(noopTransport{}, logger, bridge.Options{})
	s := NewSession(Renderer{})
	s.Replace(sampleNotes())
	c := NewController(s, b, logger)

	if err := c.BeginDrag("n2", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	outcome, err := c.DropOn(context.Background(), "kanban:todo", "n2")
	if err != nil {
		t.Fatalf("drop must not fail: %v", err)
	}

	if outcome != OutcomeMoved {
		t.Fatalf("expected moved, got %s", outcome)
	}
	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.ErrorLevel {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the failed save to be logged")
	}
}

func TestDropWithNilSaverIsReported(t *testing.T) {
	c, _, hook := newTestController(t, nil)
	if err := c.BeginDrag("n2", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.DropOn(context.Background(), "kanban:todo", ""); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if hook.LastEntry() == nil {
		t.Fatal("expected a diagnostic log")
	}
}

func TestGesturesOnUnknownElements(t *testing.T) {
	c, _, _ := newTestController(t, &recordingSaver{})
	if err := c.BeginDrag("ghost", ""); !errors.Is(err, ErrUnknownCard) {
		t.Fatalf("expected ErrUnknownCard, got %v", err)
	}
	if err := c.DragOver("kanban:nowhere"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := c.DropOn(context.Background(), "kanban:nowhere", ""); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestTagIDReusedFromOtherNotes(t *testing.T) {
	saver := &recordingSaver{}
	c, _, _ := newTestController(t, saver)
	if err := c.BeginDrag("n2", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.DropOn(context.Background(), "kanban:todo", ""); err != nil {
		t.Fatalf("drop: %v", err)
	}
	tags := saver.saved[0][0].Tags
	if len(tags) != 1 || tags[0].ID != "todo" || tags[0].Title != "kanban:todo" {
		t.Fatalf("expected existing tag id to be reused, got %+v", tags)
	}
}

func TestHostPushAbandonsGesture(t *testing.T) {
	c, s, _ := newTestController(t, &recordingSaver{})
	if err := c.BeginDrag("n1", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Replace(sampleNotes())

	outcome, err := c.DropOn(context.Background(), "kanban:done", "n1")
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if outcome != OutcomeNoActiveDrag {
		t.Fatalf("expected the drop to be ignored after a host push, got %s", outcome)
	}
}

type noopTransport struct{}

func (noopTransport) Send(context.Context, []byte) error { return nil }

func TestDragLeaveClearsHoverCue(t *testing.T) {
	c, s, _ := newTestController(t, &recordingSaver{})
	if err := c.DragOver("kanban:todo"); err != nil {
		t.Fatalf("dragover: %v", err)
	}
	if !hasClass(s.bound.column("kanban:todo"), classDragOver) {
		t.Fatal("hover cue not applied")
	}
	if err := c.DragLeave("kanban:todo"); err != nil {
		t.Fatalf("dragleave: %v", err)
	}
	if hasClass(s.bound.column("kanban:todo"), classDragOver) {
		t.Fatal("hover cue not cleared")
	}
	if err := c.DragLeave("kanban:nowhere"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestDropClearsHoverOnEveryColumn(t *testing.T) {
	c, s, _ := newTestController(t, &recordingSaver{})
	if err := c.BeginDrag("n1", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, id := range []string{"kanban:todo", "kanban:done"} {
		if err := c.DragOver(id); err != nil {
			t.Fatalf("dragover %s: %v", id, err)
		}
	}
	if _, err := c.DropOn(context.Background(), "kanban:done", "n1"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	out, err := s.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), classDragOver) {
		t.Fatalf("hover cue left after drop: %s", out)
	}
}

func TestEndDragReportsChanges(t *testing.T) {
	c, s, _ := newTestController(t, &recordingSaver{})
	if c.EndDrag() {
		t.Fatal("expected no change without a gesture")
	}
	if err := c.BeginDrag("n1", ""); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !c.EndDrag() {
		t.Fatal("expected the dragging mark removal to be reported")
	}
	if hasClass(s.bound.card("n1", ""), classDragging) {
		t.Fatal("dragging mark not cleared")
	}
	if err := c.DragOver("kanban:done"); err != nil {
		t.Fatalf("dragover: %v", err)
	}
	if !c.EndDrag() {
		t.Fatal("expected the hover cue removal to be reported")
	}
}
