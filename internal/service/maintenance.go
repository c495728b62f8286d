package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/unmatched"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

// DefaultRetention is how long unmatched queries are kept.
const DefaultRetention = 30 * 24 * time.Hour

// MaintenanceService runs the retention purge.
type MaintenanceService struct {
	unmatched unmatched.Repository
	retention time.Duration
	logger    *logger.Logger
	now       Clock
}

func NewMaintenanceService(repo unmatched.Repository, retention time.Duration, log *logger.Logger) *MaintenanceService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MaintenanceService{
		unmatched: repo,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Purge deletes unmatched queries received before now minus the retention
// window.
func (s *MaintenanceService) Purge(ctx context.Context) (*model.PurgeResult, error) {
	cutoff := s.now().Add(-s.retention)

	deleted, err := s.unmatched.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	metrics.RecordPurge(deleted)

	s.logger.Info("unmatched queries purged",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)
	return &model.PurgeResult{Success: true, Deleted: deleted, Cutoff: cutoff}, nil
}
