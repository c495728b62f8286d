package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// EventReceived is the acknowledgement body the platform expects.
const EventReceived = "EVENT_RECEIVED"

// WebhookHandler serves the platform-facing webhook.
type WebhookHandler struct {
	processor   *service.Processor
	verifyToken string
	logger      *logger.Logger
}

// NewWebhookHandler creates a webhook handler. An empty verifyToken makes
// every verification fail.
func NewWebhookHandler(processor *service.Processor, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor:   processor,
		verifyToken: verifyToken,
		logger:      log.Named("webhook"),
	}
}

// Verify handles GET /webhook
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		h.logger.Warn("webhook verification rejected", zap.String("mode", mode))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	h.logger.Info("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// Receive handles POST /webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var event model.WebhookEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, middleware.MaxWebhookBody)).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// The platform may hang up early; processing still runs to completion.
	ctx := context.WithoutCancel(r.Context())

	res, err := h.processor.Process(ctx, &event)
	if errors.Is(err, common.ErrUnsupportedObject) {
		h.logger.Info("ignored webhook object", zap.String("object", event.Object))
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		// Process only fails on the object check; keep the ack anyway.
		h.logger.Error("webhook processing failed", zap.Error(err))
	}

	h.logger.Info("webhook processed",
		zap.String("object", event.Object),
		zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		zap.Int("processed", res.Processed),
		zap.Int("matched", res.Matched),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(EventReceived))
}
