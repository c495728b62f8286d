package accounts

import (
	"context"

	"github.com/google/uuid"

	"github.com/capitalize-ai/autoreply-relay/internal/dbx"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/pgerr"
)

const columns = `id, user_id, page_id, name, access_token, webhook_secret, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*model.Account, error) {
	a := &model.Account{}
	if err := s.Scan(&a.ID, &a.UserID, &a.PageID, &a.Name, &a.AccessToken, &a.WebhookSecret, &a.CreatedAt); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	if account.ID == "" {
		account.ID = uuid.Must(uuid.NewV7()).String()
	}

	query :=
		`INSERT INTO accounts (id, user_id, page_id, name, access_token, webhook_secret)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.UserID, account.PageID, account.Name, account.AccessToken, account.WebhookSecret,
	).Scan(&account.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByPageID(ctx context.Context, pageID string) (*model.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE page_id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, pageID))
}

func (r *PostgresRepository) GetForUser(ctx context.Context, userID, id string) (*model.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE id = $1 AND user_id = $2`
	return scanAccount(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]model.Account, error) {
	query := `SELECT ` + columns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *model.Account) (*model.Account, error) {
	query :=
		`UPDATE accounts SET name = $3, access_token = $4, webhook_secret = $5
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + columns

	return scanAccount(r.db.QueryRowContext(ctx, query,
		account.ID, account.UserID, account.Name, account.AccessToken, account.WebhookSecret))
}

// Delete removes the account. Rules, unmatched queries and contacts go with
// it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM accounts WHERE id = $1 AND user_id = $2`
	return pgerr.MustAffect(r.db.ExecContext(ctx, query, id, userID))
}
