package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

// HeartbeatInterval is how often an idle stream is kept alive.
var HeartbeatInterval = 30 * time.Second

// LiveSubscriber delivers a contact's newly logged messages.
type LiveSubscriber interface {
	Subscribe(userID, contactID string) (<-chan *model.Message, func(), error)
}

// StreamHandler handles the live chat SSE endpoint.
type StreamHandler struct {
	messages *service.MessageService
	live     LiveSubscriber
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler. live may be nil, in which
// case streaming answers 503 and clients fall back to polling.
func NewStreamHandler(messages *service.MessageService, live LiveSubscriber, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		messages: messages,
		live:     live,
		logger:   log.Named("stream"),
	}
}

// ReplayCompleteEvent marks the end of the history replay.
type ReplayCompleteEvent struct {
	MessageCount int `json:"message_count"`
}

// Stream handles GET /api/contacts/{id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	contactID, ok := pathID(w, r)
	if !ok {
		return
	}

	if h.live == nil {
		writeError(w, http.StatusServiceUnavailable, "live updates unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before reading history so nothing logged in between is lost.
	updates, cancel, err := h.live.Subscribe(userID, contactID)
	if err != nil {
		h.logger.Error("failed to subscribe", zap.String("contact_id", contactID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "live updates unavailable")
		return
	}
	defer cancel()

	history, err := h.messages.List(ctx, userID, contactID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to load messages")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"contact_id": contactID,
	})

	seen := make(map[string]struct{}, len(history))
	for i := range history {
		seen[history[i].ID] = struct{}{}
		sendSSEEvent(w, flusher, "message", &history[i])
	}
	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{MessageCount: len(history)})

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected", zap.String("contact_id", contactID))
			return

		case msg, open := <-updates:
			if !open {
				sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
					Code:    "stream_closed",
					Message: "Live updates ended",
				})
				return
			}
			if _, dup := seen[msg.ID]; dup {
				continue
			}
			sendSSEEvent(w, flusher, "message", msg)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

// sendSSEEvent sends a Server-Sent Event.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
