// Package accounts stores connected pages and their access tokens.
package accounts

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

type Repository interface {
	Create(ctx context.Context, account *model.Account) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByPageID(ctx context.Context, pageID string) (*model.Account, error)
	GetForUser(ctx context.Context, userID, id string) (*model.Account, error)
	ListForUser(ctx context.Context, userID string) ([]model.Account, error)
	Update(ctx context.Context, account *model.Account) (*model.Account, error)
	Delete(ctx context.Context, userID, id string) error
}
