package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/plaza/internal/domain"
	"github.com/gosuda/plaza/internal/stream"
	"github.com/gosuda/plaza/internal/wire"
)

// Hub serves the audit-log stream over WebSocket connections.
type Hub struct {
	feed           *stream.Feed
	originPatterns []string
}

// NewHub creates a new WebSocket hub. originPatterns lists the additional
// browser origins allowed to connect.
func NewHub(feed *stream.Feed, originPatterns []string) *Hub {
	return &Hub{feed: feed, originPatterns: originPatterns}
}

// ServeAuditLogs sends one binary frame per streamed audit log. Each frame is
// a wire.Message carrying the per-connection sequence number and a
// "<TYPE> <TARGET>" summary.
func (h *Hub) ServeAuditLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	defer h.feed.Metrics().TrackConnection("websocket")()

	// CloseRead cancels ctx once the client goes away.
	ctx := conn.CloseRead(r.Context())
	adapter := h.feed.Open()

	var (
		seq int32
		buf []byte
	)
	for record, streamErr := range adapter.Records(ctx) {
		if streamErr != nil {
			log.Error().Err(streamErr).Msg("websocket stream")
			_ = conn.Close(websocket.StatusInternalError, "stream failed")
			return
		}

		seq++
		buf = wire.Append(buf[:0], Summary(seq, record))
		if writeErr := conn.Write(ctx, websocket.MessageBinary, buf); writeErr != nil {
			log.Debug().Err(writeErr).Msg("websocket write")
			return
		}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
}

// Summary builds the frame sent for the seq-th record of a connection.
func Summary(seq int32, record domain.AuditLog) wire.Message {
	return wire.Message{
		ID:   seq,
		Name: string(record.OperationType) + " " + string(record.OperationTarget),
	}
}
