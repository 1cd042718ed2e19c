// Package bridge implements the board's side of the host message channel:
// the startup handshake, outbound item requests and saves, and dispatch of
// inbound host messages.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/antonio59/standard-notes-kanban/domain"
	"github.com/antonio59/standard-notes-kanban/hostmsg"
)

// DefaultFallbackTimeout is how long Start waits for a channel announcement
// before sending the unprompted data request.
const DefaultFallbackTimeout = time.Second

// ErrChannelNotReady is returned by requests made before the handshake completed.
var ErrChannelNotReady = errors.New("host channel not ready")

const tracerName = "github.com/antonio59/standard-notes-kanban/bridge"

// Transport delivers a payload to the host. Delivery is fire-and-forget.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
}

type handshakeState int

const (
	awaitingChannel handshakeState = iota
	channelReady
)

func (s handshakeState) String() string {
	if s == channelReady {
		return "ready"
	}
	return "awaiting-channel"
}

// Options configures a Bridge.
type Options struct {
	// FallbackTimeout defaults to DefaultFallbackTimeout.
	FallbackTimeout time.Duration
	// Schedule runs f on the goroutine that owns the bridge. The fallback timer
	// uses it so that it never races the handshake. Nil runs f inline.
	Schedule func(f func())
	// OnItems receives the normalized notes of every data delivery.
	OnItems func(ctx context.Context, notes []domain.Note)
	// NewMessageID defaults to random UUIDs.
	NewMessageID func() string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Bridge is not safe for concurrent use; all methods must be called from the
// goroutine Options.Schedule runs on.
type Bridge struct {
	transport Transport
	logger    *log.Logger
	opts      Options

	ctx     context.Context
	state   handshakeState
	timer   *time.Timer
	started bool
}

// New creates a bridge sending through t.
func New(t Transport, logger *log.Logger, opts Options) *Bridge {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = DefaultFallbackTimeout
	}
	if opts.Schedule == nil {
		opts.Schedule = func(f func()) { f() }
	}
	if opts.NewMessageID == nil {
		opts.NewMessageID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bridge{transport: t, logger: logger, opts: opts, ctx: context.Background()}
}

// Ready reports whether the host channel has been announced.
func (b *Bridge) Ready() bool {
	return b.state == channelReady
}

// Start announces the board to the host and arms the fallback timer. Calling
// it again is a no-op.
func (b *Bridge) Start(ctx context.Context) error {
	if b.started {
		return nil
	}
	b.started = true
	b.ctx = ctx

	payload, err := hostmsg.ComponentReady()
	if err != nil {
		return err
	}
	if err := b.transport.Send(ctx, payload); err != nil {
		b.logger.Errorf("send componentReady: %v", err)
	} else {
		b.logger.Info("component ready message sent")
	}

	b.timer = time.AfterFunc(b.opts.FallbackTimeout, func() {
		b.opts.Schedule(b.fallback)
	})
	return nil
}

// Stop cancels the fallback timer.
func (b *Bridge) Stop() {
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *Bridge) fallback() {
	if b.state == channelReady {
		return
	}
	b.logger.Warn("host channel not announced after timeout, requesting component data")
	payload, err := hostmsg.RequestComponentData()
	if err != nil {
		b.logger.Errorf("encode requestComponentData: %v", err)
		return
	}
	if err := b.transport.Send(b.ctx, payload); err != nil {
		b.logger.Errorf("send requestComponentData: %v", err)
	}
}

// RequestItems asks the host for items of the given content types.
func (b *Bridge) RequestItems(ctx context.Context, contentTypes ...string) error {
	if b.state != channelReady {
		return ErrChannelNotReady
	}
	id := b.opts.NewMessageID()
	payload, err := hostmsg.RequestItems(id, contentTypes)
	if err != nil {
		return fmt.Errorf("encode requestItems: %w", err)
	}
	b.logger.WithFields(log.Fields{"action": hostmsg.ActionRequestItems, "message_id": id}).Debug("requesting items")
	return b.transport.Send(ctx, payload)
}

// SaveItems asks the host to persist notes, refreshing their updated_at.
func (b *Bridge) SaveItems(ctx context.Context, notes []domain.Note) error {
	if b.state != channelReady {
		return ErrChannelNotReady
	}
	now := b.opts.Now()
	items := make([]hostmsg.SavedItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, hostmsg.EncodeNote(n, now))
	}
	id := b.opts.NewMessageID()
	payload, err := hostmsg.SaveItems(id, items)
	if err != nil {
		return fmt.Errorf("encode saveItems: %w", err)
	}
	b.logger.WithFields(log.Fields{"action": hostmsg.ActionSaveItems, "message_id": id, "count": len(items)}).Info("saving notes")
	return b.transport.Send(ctx, payload)
}

// Handle decodes and dispatches one inbound host message.
func (b *Bridge) Handle(ctx context.Context, payload []byte) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "bridge.handle")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	msg, err := hostmsg.Decode(payload)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case hostmsg.ComponentData:
		span.SetAttributes(attribute.String("host.action", hostmsg.ActionComponentData), attribute.Int("host.items", len(m.Items)))
		if !m.Found {
			b.logger.Debug("componentData without items ignored")
			return nil
		}
		notes := hostmsg.NormalizeNotes(m.Items)
		b.logger.WithFields(log.Fields{"items": len(m.Items), "notes": len(notes)}).Info("items received")
		if b.opts.OnItems != nil {
			b.opts.OnItems(ctx, notes)
		}
		return nil
	case hostmsg.ChannelReady:
		span.SetAttributes(attribute.String("host.action", m.Action))
		return b.channelReady(ctx, m.Action)
	case hostmsg.Unknown:
		span.SetAttributes(attribute.String("host.action", m.Action))
		b.logger.WithField("action", m.Action).Debug("ignoring host message")
		return nil
	default:
		return fmt.Errorf("unhandled host message %T", msg)
	}
}

func (b *Bridge) channelReady(ctx context.Context, action string) error {
	if b.state == channelReady {
		return nil
	}
	b.state = channelReady
	if b.timer != nil {
		b.timer.Stop()
	}
	b.logger.WithField("action", action).Infof("host channel %s", b.state)
	return b.RequestItems(ctx, hostmsg.ContentTypeNote)
}
