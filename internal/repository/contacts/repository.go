// Package contacts stores the platform end-users known to each owning user.
package contacts

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

type Repository interface {
	// Upsert creates the contact or refreshes its last interaction. It is
	// idempotent on (UserID, PlatformUserID) and returns the stored row.
	Upsert(ctx context.Context, contact *model.Contact) (*model.Contact, error)
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	ListForUser(ctx context.Context, userID string, filter model.ContactFilter) ([]model.Contact, error)
	// AddTags unions tags into the contact's tag set atomically and returns the new set.
	AddTags(ctx context.Context, id string, tags ...string) ([]string, error)
}
