package repomanager

import (
	"context"

	"github.com/capitalize-ai/autoreply-relay/internal/repository/memory"
)

// MemoryRepositoryManager serves STORAGE=memory. Transactions are not
// isolated: WithTx runs fn against the shared store.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: memory.NewStore()}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Repos() Repos {
	return Repos{
		Accounts:  m.store.Accounts(),
		Rules:     m.store.Rules(),
		Contacts:  m.store.Contacts(),
		Messages:  m.store.Messages(),
		Unmatched: m.store.Unmatched(),
	}
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return fn(ctx, m.Repos())
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
