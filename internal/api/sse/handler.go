// Package sse serves the audit-log stream as server-sent events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/plaza/internal/stream"
)

// Handler writes every streamed audit log as one `data:` event. Iterations
// that time out produce a comment line so intermediaries keep the
// connection open.
type Handler struct {
	feed *stream.Feed
}

func NewHandler(feed *stream.Feed) *Handler {
	return &Handler{feed: feed}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		log.Error().Err(err).Msg("sse: streaming unsupported")
		return
	}
	// Streams outlive any server-wide write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	defer h.feed.Metrics().TrackConnection("sse")()

	ctx := r.Context()
	adapter := h.feed.Open()

	for {
		record, ok, err := adapter.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("sse: stream failed")
			}
			return
		}

		if !ok {
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		} else {
			payload, err := json.Marshal(record)
			if err != nil {
				log.Error().Err(err).Msg("sse: marshal audit log")
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				log.Debug().Err(err).Msg("sse: write")
				return
			}
		}

		if err := rc.Flush(); err != nil {
			log.Debug().Err(err).Msg("sse: flush")
			return
		}
	}
}
