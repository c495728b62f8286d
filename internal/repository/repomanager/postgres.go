package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/capitalize-ai/autoreply-relay/internal/dbx"
	"github.com/capitalize-ai/autoreply-relay/internal/migrations"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/accounts"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/contacts"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/messages"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/rules"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/unmatched"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// OpenPostgres opens a pgx-backed pool for dsn.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// NewPostgresRepositoryManager wraps an open pool.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Repos() Repos {
	return bind(m.db)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func bind(db dbx.DBTX) Repos {
	return Repos{
		Accounts:  accounts.NewPostgresRepository(db),
		Rules:     rules.NewPostgresRepository(db),
		Contacts:  contacts.NewPostgresRepository(db),
		Messages:  messages.NewPostgresRepository(db),
		Unmatched: unmatched.NewPostgresRepository(db),
	}
}
