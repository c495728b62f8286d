// Package rules stores keyword auto-reply rules.
package rules

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

type Repository interface {
	// ListActive returns the active rules of an account in match order.
	ListActive(ctx context.Context, accountID string) ([]model.Rule, error)
	ListForUser(ctx context.Context, userID, accountID string) ([]model.Rule, error)
	GetForUser(ctx context.Context, userID, id string) (*model.Rule, error)
	Create(ctx context.Context, rule *model.Rule) (*model.Rule, error)
	Update(ctx context.Context, userID string, rule *model.Rule) (*model.Rule, error)
	Delete(ctx context.Context, userID, id string) error
}
