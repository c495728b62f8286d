package handler

import (
	"net/http"

	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// CronHandler serves scheduler-triggered maintenance.
type CronHandler struct {
	maintenance *service.MaintenanceService
	logger      *logger.Logger
}

// NewCronHandler creates a new cron handler.
func NewCronHandler(maintenance *service.MaintenanceService, log *logger.Logger) *CronHandler {
	return &CronHandler{maintenance: maintenance, logger: log}
}

// Cleanup handles GET /api/cron/cleanup
func (h *CronHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	res, err := h.maintenance.Purge(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to purge unmatched queries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
