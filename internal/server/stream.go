package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/apexai-labs/onyx/internal/domain"
	"github.com/apexai-labs/onyx/internal/pipeline"
	"github.com/apexai-labs/onyx/internal/twilio"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The telephony layer dials from its own infrastructure; there is no
	// browser origin to check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler serves one media-stream websocket per call. Events for a
// call are processed strictly in arrival order: the read loop does not
// pick up the next frame until the previous one is fully handled, because
// transcript order is semantically load-bearing. Concurrency across calls
// comes from each call having its own connection.
func StreamHandler(p *pipeline.Pipeline, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}
		defer conn.Close()

		ctx := r.Context()
		var streamSid string

		// Transport close tears the session down even without a stop
		// event.
		defer func() {
			if streamSid != "" {
				p.HandleStop(ctx, &twilio.Event{Event: twilio.EventStop, StreamSid: streamSid})
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warn("stream read failed",
						slog.String("stream_sid", streamSid),
						slog.String("error", err.Error()))
				}
				return
			}

			ev, err := twilio.ParseEvent(data)
			if err != nil {
				// Malformed frame: discard it, keep the stream open.
				logger.Debug("malformed stream event", slog.String("error", err.Error()))
				continue
			}

			switch ev.Event {
			case twilio.EventStart:
				streamSid = ev.StreamSid
				if err := p.HandleStart(ctx, ev); err != nil {
					logger.Warn("start rejected",
						slog.String("stream_sid", ev.StreamSid),
						slog.String("error", err.Error()))
				}

			case twilio.EventMedia:
				out, err := p.HandleMedia(ctx, ev)
				if err != nil {
					level := slog.LevelWarn
					if errors.Is(err, domain.ErrUnknownSession) || errors.Is(err, domain.ErrSessionClosed) {
						level = slog.LevelDebug
					}
					logger.Log(ctx, level, "media event dropped",
						slog.String("stream_sid", ev.StreamSid),
						slog.String("error", err.Error()))
					continue
				}
				if out == nil {
					continue
				}
				if err := conn.WriteJSON(out); err != nil {
					logger.Warn("stream write failed",
						slog.String("stream_sid", ev.StreamSid),
						slog.String("error", err.Error()))
					return
				}

			case twilio.EventStop:
				if ev.StreamSid == "" {
					ev.StreamSid = streamSid
				}
				p.HandleStop(ctx, ev)
				streamSid = ""
				return

			default:
				logger.Debug("unhandled stream event", slog.String("event", ev.Event))
			}
		}
	}
}
