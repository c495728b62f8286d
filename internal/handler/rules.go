package handler

import (
	"net/http"

	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// RuleHandler handles keyword rule endpoints.
type RuleHandler struct {
	service *service.RuleService
	logger  *logger.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(svc *service.RuleService, log *logger.Logger) *RuleHandler {
	return &RuleHandler{service: svc, logger: log}
}

// List handles GET /api/rules?accountId=
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID != "" {
		if err := middleware.ValidateID(accountID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rules, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), accountID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list rules")
		return
	}
	if rules == nil {
		rules = []model.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

// Create handles POST /api/rules
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateID(req.AccountID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account_id")
		return
	}
	if req.ReplyContent != "" {
		if err := middleware.ValidateText(req.ReplyContent); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rule, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create rule")
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// Get handles GET /api/rules/{id}
func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rule, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get rule")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Update handles PUT /api/rules/{id}
func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReplyContent != nil {
		if err := middleware.ValidateText(*req.ReplyContent); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rule, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update rule")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// Delete handles DELETE /api/rules/{id}
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
