package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/apexai-labs/onyx/internal/callrecord"
	"github.com/apexai-labs/onyx/internal/greeting"
	"github.com/apexai-labs/onyx/internal/twilio"
)

// IncomingCallHandler answers the telephony provider's new-call webhook
// with a TwiML document: speak a random greeting for the call direction,
// then open a media stream back to streamURL. It never touches core state.
func IncomingCallHandler(logger *slog.Logger, sayVoice, streamURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		direction := r.FormValue("Direction")
		if direction == "" {
			direction = greeting.DirectionOutbound
		}

		line := greeting.Pick(direction)
		doc, err := twilio.VoiceResponse(line, sayVoice, streamURL)
		if err != nil {
			logger.Error("twiml build failed", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		logger.Info("incoming call",
			slog.String("direction", direction),
			slog.String("request_id", GetRequestID(r.Context())))

		w.Header().Set("Content-Type", "application/xml")
		w.Write(doc)
	}
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("OK"))
}

// CallLogHandler lists recent calls from the call log as JSON.
func CallLogHandler(store *callrecord.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "call log disabled", http.StatusNotFound)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		calls, err := store.RecentCalls(r.Context(), limit)
		if err != nil {
			logger.Error("call log query failed", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"calls": calls})
	}
}
