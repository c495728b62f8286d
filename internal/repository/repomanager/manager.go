// Package repomanager vends the repositories for the configured storage
// backend and owns the underlying connection.
package repomanager

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/repository/accounts"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/contacts"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/messages"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/rules"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/unmatched"
)

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Accounts  accounts.Repository
	Rules     rules.Repository
	Contacts  contacts.Repository
	Messages  messages.Repository
	Unmatched unmatched.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Repos() Repos
	// WithTx runs fn with repositories bound to a single transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	Ping(ctx context.Context) error
	Close() error
}
