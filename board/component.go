package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/antonio59/standard-notes-kanban/bridge"
	"github.com/antonio59/standard-notes-kanban/domain"
)

var (
	// ErrStopped is returned by calls made after the event loop exited.
	ErrStopped = errors.New("board stopped")
	// ErrUnknownGesture is returned for gesture types the board does not handle.
	ErrUnknownGesture = errors.New("unknown gesture")
)

// GestureType names a browser drag event.
type GestureType string

const (
	GestureDragStart GestureType = "dragstart"
	GestureDragEnter GestureType = "dragenter"
	GestureDragOver  GestureType = "dragover"
	GestureDragLeave GestureType = "dragleave"
	GestureDrop      GestureType = "drop"
	GestureDragEnd   GestureType = "dragend"
)

// Gesture is a drag event forwarded by the browser.
type Gesture struct {
	Type     GestureType `json:"type"`
	NoteID   string      `json:"noteId,omitempty"`
	ColumnID string      `json:"columnId,omitempty"`
}

// Result is the reply to a gesture. Outcome is only set for drops.
type Result struct {
	Outcome Outcome `json:"outcome,omitempty"`
}

// Publisher receives the rendered board whenever it changes.
type Publisher interface {
	Publish(payload []byte) int
}

// Options configures a Component.
type Options struct {
	Policy          domain.MembershipPolicy
	FallbackTimeout time.Duration
}

// inboxSize bounds the events queued ahead of the loop.
const inboxSize = 64

// Component runs the board: one goroutine owns the session and the host
// bridge, and every other goroutine talks to it through the inbox.
type Component struct {
	inbox   chan func()
	done    chan struct{}
	ctx     context.Context
	session *Session
	gesture *Controller
	bridge  *bridge.Bridge
	out     Publisher
	logger  *log.Logger
}

// New creates a component talking to the host through t and publishing board
// updates to out.
func New(t bridge.Transport, out Publisher, logger *log.Logger, opts Options) *Component {
	if logger == nil {
		logger = log.StandardLogger()
	}
	c := &Component{
		inbox:   make(chan func(), inboxSize),
		done:    make(chan struct{}),
		ctx:     context.Background(),
		session: NewSession(Renderer{Policy: opts.Policy}),
		out:     out,
		logger:  logger,
	}
	c.bridge = bridge.New(t, logger, bridge.Options{
		FallbackTimeout: opts.FallbackTimeout,
		Schedule:        c.post,
		OnItems:         c.replace,
	})
	c.gesture = NewController(c.session, c.bridge, logger)
	return c
}

// Run starts the host handshake and processes events until ctx is done.
func (c *Component) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.done)
	defer c.bridge.Stop()

	if err := c.bridge.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-c.inbox:
			f()
		}
	}
}

// post queues f without waiting for it to run. Before Run starts it only
// blocks once the inbox is full; after Run returns f is dropped.
func (c *Component) post(f func()) {
	select {
	case c.inbox <- f:
	case <-c.done:
	}
}

// do runs f on the loop and waits for it.
func (c *Component) do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		f()
	}
	select {
	case c.inbox <- wrapped:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound hands a host payload to the bridge. It does not wait for dispatch.
// Payloads that arrive before Run are handled once the loop starts.
func (c *Component) Inbound(payload []byte) {
	c.post(func() {
		if err := c.bridge.Handle(c.ctx, payload); err != nil {
			c.logger.Errorf("handle host message: %v", err)
		}
	})
}

func (c *Component) replace(_ context.Context, notes []domain.Note) {
	c.session.Replace(notes)
	c.logger.WithFields(log.Fields{"notes": len(notes), "columns": len(c.session.Columns())}).Debug("board rendered")
	c.publish()
}

func (c *Component) publish() {
	if c.out == nil {
		return
	}
	data, err := c.session.HTML()
	if err != nil {
		c.logger.Errorf("render board: %v", err)
		return
	}
	c.out.Publish(data)
}

// Gesture applies a browser drag event.
func (c *Component) Gesture(ctx context.Context, g Gesture) (Result, error) {
	var res Result
	var gerr error
	err := c.do(ctx, func() {
		res, gerr = c.apply(g)
	})
	if err != nil {
		return Result{}, err
	}
	return res, gerr
}

func (c *Component) apply(g Gesture) (Result, error) {
	switch g.Type {
	case GestureDragStart:
		return Result{}, c.gesture.BeginDrag(g.NoteID, g.ColumnID)
	case GestureDragEnter, GestureDragOver:
		return Result{}, c.gesture.DragOver(g.ColumnID)
	case GestureDragLeave:
		return Result{}, c.gesture.DragLeave(g.ColumnID)
	case GestureDrop:
		outcome, err := c.gesture.DropOn(c.ctx, g.ColumnID, g.NoteID)
		if err != nil {
			return Result{}, err
		}
		if outcome == OutcomeMoved {
			c.publish()
		}
		return Result{Outcome: outcome}, nil
	case GestureDragEnd:
		if c.gesture.EndDrag() {
			c.publish()
		}
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("%w %q", ErrUnknownGesture, g.Type)
	}
}

// Snapshot returns the rendered board.
func (c *Component) Snapshot(ctx context.Context) ([]byte, error) {
	var data []byte
	var rerr error
	if err := c.do(ctx, func() { data, rerr = c.session.HTML() }); err != nil {
		return nil, err
	}
	return data, rerr
}

// Notes returns a copy of the local note collection.
func (c *Component) Notes(ctx context.Context) ([]domain.Note, error) {
	var notes []domain.Note
	if err := c.do(ctx, func() { notes = c.session.Notes() }); err != nil {
		return nil, err
	}
	return notes, nil
}

// Ready reports whether the host handshake completed.
func (c *Component) Ready(ctx context.Context) (bool, error) {
	var ready bool
	if err := c.do(ctx, func() { ready = c.bridge.Ready() }); err != nil {
		return false, err
	}
	return ready, nil
}
