package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// errBodyTooLarge is returned by host message bodies read past their limit.
var errBodyTooLarge = errors.New("host message too large")

// HostBodyMiddleware prepares host message bodies: gzip payloads are inflated
// and the decoded stream is capped at limit bytes, so a compressed message
// cannot expand past what a plain one may carry. Reads beyond the cap fail
// with errBodyTooLarge.
func HostBodyMiddleware(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			body := &hostBody{raw: req.Body, src: req.Body, limit: limit}

			if gzipEncoded(req.Header.Get(echo.HeaderContentEncoding)) {
				gr, err := gzip.NewReader(req.Body)
				if err != nil {
					_ = req.Body.Close()
					return c.String(http.StatusBadRequest, "invalid gzip body")
				}
				body.src, body.inflate = gr, gr
				req.ContentLength = -1
				req.Header.Del(echo.HeaderContentEncoding)
				req.Header.Del(echo.HeaderContentLength)
			} else if req.ContentLength > limit {
				_ = req.Body.Close()
				return c.NoContent(http.StatusRequestEntityTooLarge)
			}

			req.Body = body
			return next(c)
		}
	}
}

func gzipEncoded(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

// hostBody reads at most limit decoded bytes from src.
type hostBody struct {
	src     io.Reader
	raw     io.Closer
	inflate io.Closer
	limit   int64
	read    int64
}

func (b *hostBody) Read(p []byte) (int, error) {
	if b.read > b.limit {
		return 0, errBodyTooLarge
	}
	if room := b.limit + 1 - b.read; int64(len(p)) > room {
		p = p[:room]
	}
	n, err := b.src.Read(p)
	b.read += int64(n)
	if b.read > b.limit {
		return n, errBodyTooLarge
	}
	return n, err
}

func (b *hostBody) Close() error {
	var err error
	if b.inflate != nil {
		err = b.inflate.Close()
	}
	if cerr := b.raw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
