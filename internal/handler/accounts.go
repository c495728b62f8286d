package handler

import (
	"net/http"

	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// AccountHandler handles connected page endpoints.
type AccountHandler struct {
	accounts    *service.AccountService
	suggestions *service.SuggestionService
	logger      *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *service.AccountService, suggestions *service.SuggestionService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:    accounts,
		suggestions: suggestions,
		logger:      log,
	}
}

// List handles GET /api/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list accounts")
		return
	}

	out := make([]model.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, model.NewAccountResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, model.NewAccountResponse(account))
}

// Get handles GET /api/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get account")
		return
	}
	writeJSON(w, http.StatusOK, model.NewAccountResponse(account))
}

// Update handles PUT /api/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Update(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, model.NewAccountResponse(account))
}

// Delete handles DELETE /api/accounts/{id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeServiceError(w, h.logger, err, "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unmatched handles GET /api/accounts/unmatched?accountId=
func (h *AccountHandler) Unmatched(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID != "" {
		if err := middleware.ValidateID(accountID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	queries, err := h.accounts.Unmatched(r.Context(), middleware.GetUserID(r.Context()), accountID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list unmatched queries")
		return
	}
	if queries == nil {
		queries = []model.UnmatchedQuery{}
	}
	writeJSON(w, http.StatusOK, queries)
}

// Suggestions handles GET /api/accounts/{id}/suggestions
func (h *AccountHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	suggestions, err := h.suggestions.Suggest(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to suggest rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}
