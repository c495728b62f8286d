// Package messages is the append-only log of inbound and outbound texts.
package messages

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

type Repository interface {
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)
	// ListForContact returns the latest limit messages of a contact, oldest first.
	ListForContact(ctx context.Context, contactID string, limit int) ([]model.Message, error)
}
