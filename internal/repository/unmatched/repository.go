// Package unmatched stores inbound messages that matched no rule.
package unmatched

import (
	"context"
	"time"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, q *model.UnmatchedQuery) (*model.UnmatchedQuery, error)
	// ListRecent returns the newest limit queries of an account, newest first.
	ListRecent(ctx context.Context, accountID string, limit int) ([]model.UnmatchedQuery, error)
	// DeleteOlderThan removes queries received strictly before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
