package handler

import (
	"net/http"

	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// ContactHandler handles the audience and live chat endpoints.
type ContactHandler struct {
	contacts *service.ContactService
	messages *service.MessageService
	logger   *logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contacts *service.ContactService, messages *service.MessageService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		messages: messages,
		logger:   log,
	}
}

// List handles GET /api/contacts?search=&limit=&offset=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.ContactFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}

	resp, err := h.contacts.List(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list contacts")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.contacts.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get contact")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// AddTags handles POST /api/contacts/{id}/tags
func (h *ContactHandler) AddTags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.AddTagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for _, tag := range req.Tags {
		if err := middleware.ValidateTag(tag); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	contact, err := h.contacts.AddTags(r.Context(), middleware.GetUserID(r.Context()), id, req.Tags)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to tag contact")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Messages handles GET /api/contacts/{id}/messages
func (h *ContactHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	msgs, err := h.messages.List(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{Messages: msgs})
}
