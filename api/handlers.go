// Package api exposes the board and the host channel over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/antonio59/standard-notes-kanban/board"
)

const (
	sseDataPrefix     = "data: "
	gestureMaxSize    = 4 << 10
	defaultHostLimit  = 8 << 20
	snapshotTimeout   = 5 * time.Second
	hostStreamPath    = "/host/stream"
	hostMessagesPath  = "/host/messages"
	boardStreamPath   = "/board/stream"
	boardGesturesPath = "/board/gestures"
)

// Board is the running kanban component.
type Board interface {
	Inbound(payload []byte)
	Gesture(ctx context.Context, g board.Gesture) (board.Result, error)
	Snapshot(ctx context.Context) ([]byte, error)
	Ready(ctx context.Context) (bool, error)
}

// Stream is a fan-out source of payloads for SSE clients.
type Stream interface {
	Subscribe() chan []byte
	Unsubscribe(ch chan []byte)
}

// Options configures the HTTP surface.
type Options struct {
	// HostToken, when set, must be presented as a bearer token on host posts.
	HostToken string
	// HostBodyLimit caps inbound host messages after decompression.
	HostBodyLimit int64
	// HostStream carries outbound host messages. Nil when the host channel
	// runs over another transport.
	HostStream Stream
}

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, b Board, updates Stream, logger *log.Logger, opts Options) {
	if opts.HostBodyLimit <= 0 {
		opts.HostBodyLimit = defaultHostLimit
	}
	e.GET("/", getPage(b))
	e.GET("/board", getBoard(b))
	e.GET(boardStreamPath, streamBoard(b, updates))
	e.POST(boardGesturesPath, postGesture(b, logger))
	e.POST(hostMessagesPath, postHostMessage(b, opts.HostToken), HostBodyMiddleware(opts.HostBodyLimit))
	if opts.HostStream != nil {
		e.GET(hostStreamPath, streamHost(opts.HostStream, opts.HostToken))
	}
	e.GET("/healthz", healthz(b))
}

func healthz(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		ready, err := b.Ready(c.Request().Context())
		if err != nil {
			return c.String(http.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]bool{"hostReady": ready})
	}
}

func getPage(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		fragment, err := b.Snapshot(c.Request().Context())
		if err != nil {
			return boardError(c, err)
		}
		doc, err := page(fragment)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.HTMLBlob(http.StatusOK, doc)
	}
}

func getBoard(b Board) echo.HandlerFunc {
	return func(c echo.Context) error {
		fragment, err := b.Snapshot(c.Request().Context())
		if err != nil {
			return boardError(c, err)
		}
		return c.HTMLBlob(http.StatusOK, fragment)
	}
}

type gestureResponse struct {
	Outcome board.Outcome `json:"outcome,omitempty"`
}

func postGesture(b Board, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newGestureMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		lr := io.LimitReader(c.Request().Body, gestureMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()

		var g board.Gesture
		if decErr := dec.Decode(&g); decErr != nil {
			metrics.SetErrorStage("decode")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}
		metrics.SetGesture(g)

		res, gErr := b.Gesture(c.Request().Context(), g)
		if gErr != nil {
			metrics.SetErrorStage("apply")
			err = boardError(c, gErr)
			return err
		}
		metrics.SetOutcome(res.Outcome)
		err = c.JSON(http.StatusOK, gestureResponse{Outcome: res.Outcome})
		return err
	}
}

func boardError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, board.ErrUnknownGesture):
		return c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, board.ErrUnknownCard), errors.Is(err, board.ErrUnknownColumn):
		return c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, board.ErrStopped), errors.Is(err, context.Canceled):
		return c.String(http.StatusServiceUnavailable, err.Error())
	default:
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}

// postHostMessage expects its body prepared by HostBodyMiddleware.
func postHostMessage(b Board, token string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !authorized(c, token) {
			return c.NoContent(http.StatusUnauthorized)
		}
		body, err := io.ReadAll(c.Request().Body)
		if errors.Is(err, errBodyTooLarge) {
			return c.NoContent(http.StatusRequestEntityTooLarge)
		}
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return c.String(http.StatusBadRequest, "empty body")
		}
		b.Inbound(body)
		return c.NoContent(http.StatusAccepted)
	}
}

// authorized checks the bearer token. An empty token accepts any sender.
func authorized(c echo.Context, token string) bool {
	if token == "" {
		return true
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if q := c.QueryParam("token"); q != "" {
			header = "Bearer " + q
		}
	}
	parts := strings.SplitN(header, " ", 2)
	return len(parts) == 2 && parts[0] == "Bearer" && parts[1] == token
}

func streamBoard(b Board, updates Stream) echo.HandlerFunc {
	return func(c echo.Context) error {
		ch := updates.Subscribe()
		defer updates.Unsubscribe(ch)

		ctx, cancel := context.WithTimeout(c.Request().Context(), snapshotTimeout)
		first, err := b.Snapshot(ctx)
		cancel()
		if err != nil {
			return boardError(c, err)
		}
		return writeStream(c, first, ch)
	}
}

func streamHost(s Stream, token string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !authorized(c, token) {
			return c.NoContent(http.StatusUnauthorized)
		}
		ch := s.Subscribe()
		defer s.Unsubscribe(ch)
		return writeStream(c, nil, ch)
	}
}

// writeStream sends first, if any, and then every payload from ch as SSE
// events until the client goes away.
func writeStream(c echo.Context, first []byte, ch <-chan []byte) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request().Context()
	if first != nil {
		if err := writeEvent(c, first); err != nil {
			c.Logger().Error(err)
			return err
		}
		flusher.Flush()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-ch:
			if err := writeEvent(c, data); err != nil {
				c.Logger().Error(err)
				return err
			}
			flusher.Flush()
		}
	}
}

// writeEvent frames data as one SSE event. Multi-line payloads are split over
// several data fields.
func writeEvent(c echo.Context, data []byte) error {
	w := c.Response()
	for _, line := range strings.Split(string(data), "\n") {
		if _, err := w.Write([]byte(sseDataPrefix + line + "\n")); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("\n"))
	return err
}
