// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/graph"
	"github.com/capitalize-ai/autoreply-relay/internal/middleware"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID returns the {id} URL parameter, answering 400 when malformed.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// writeServiceError maps service errors onto status codes. Unexpected
// errors are logged and reported as 500 with msg.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	var apiErr *graph.APIError
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &apiErr):
		log.Warn("platform rejected request", zap.Int("status", apiErr.StatusCode), zap.Int("code", apiErr.Code), zap.Error(err))
		writeError(w, http.StatusBadGateway, "platform error: "+apiErr.Message)
	default:
		log.Error(msg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg)
	}
}
