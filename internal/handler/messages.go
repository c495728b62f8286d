package handler

import (
	"net/http"

	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// MessageHandler handles manual sends from live chat.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{service: svc, logger: log}
}

// Send handles POST /api/messages/send
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateID(req.ContactID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid contactId")
		return
	}
	if err := middleware.ValidateText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Send(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
