package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/capitalize-ai/autoreply-relay/internal/dbx"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/pgerr"
)

const (
	columns = `id, account_id, keyword, reply_content, is_active, position, actions, created_at, updated_at`

	// matchOrder is the order in which rules are tried against a message.
	matchOrder = `ORDER BY position ASC, created_at ASC, id ASC`

	ownedBy = `account_id IN (SELECT id FROM accounts WHERE user_id = $1)`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(s scanner) (*model.Rule, error) {
	rule := &model.Rule{}
	var actions []byte
	err := s.Scan(&rule.ID, &rule.AccountID, &rule.Keyword, &rule.ReplyContent, &rule.IsActive,
		&rule.Position, &actions, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	rule.Actions = []model.Action{}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &rule.Actions); err != nil {
			return nil, fmt.Errorf("decode actions of rule %s: %w", rule.ID, err)
		}
	}
	return rule, nil
}

func encodeActions(actions []model.Action) ([]byte, error) {
	if actions == nil {
		actions = []model.Action{}
	}
	return json.Marshal(actions)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]model.Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []model.Rule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return result, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, accountID string) ([]model.Rule, error) {
	query := `SELECT ` + columns + ` FROM rules WHERE account_id = $1 AND is_active ` + matchOrder
	return r.list(ctx, query, accountID)
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID, accountID string) ([]model.Rule, error) {
	if accountID == "" {
		query := `SELECT ` + columns + ` FROM rules WHERE ` + ownedBy + ` ` + matchOrder
		return r.list(ctx, query, userID)
	}
	query := `SELECT ` + columns + ` FROM rules WHERE ` + ownedBy + ` AND account_id = $2 ` + matchOrder
	return r.list(ctx, query, userID, accountID)
}

func (r *PostgresRepository) GetForUser(ctx context.Context, userID, id string) (*model.Rule, error) {
	query := `SELECT ` + columns + ` FROM rules WHERE ` + ownedBy + ` AND id = $2`
	return scanRule(r.db.QueryRowContext(ctx, query, userID, id))
}

func (r *PostgresRepository) Create(ctx context.Context, rule *model.Rule) (*model.Rule, error) {
	if rule.ID == "" {
		rule.ID = uuid.Must(uuid.NewV7()).String()
	}
	actions, err := encodeActions(rule.Actions)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO rules (id, account_id, keyword, reply_content, is_active, position, actions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ` + columns

	return scanRule(r.db.QueryRowContext(ctx, query,
		rule.ID, rule.AccountID, rule.Keyword, rule.ReplyContent, rule.IsActive, rule.Position, actions))
}

func (r *PostgresRepository) Update(ctx context.Context, userID string, rule *model.Rule) (*model.Rule, error) {
	actions, err := encodeActions(rule.Actions)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE rules
		 SET keyword = $3, reply_content = $4, is_active = $5, position = $6, actions = $7, updated_at = now()
		 WHERE ` + ownedBy + ` AND id = $2
		 RETURNING ` + columns

	return scanRule(r.db.QueryRowContext(ctx, query,
		userID, rule.ID, rule.Keyword, rule.ReplyContent, rule.IsActive, rule.Position, actions))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM rules WHERE ` + ownedBy + ` AND id = $2`
	return pgerr.MustAffect(r.db.ExecContext(ctx, query, userID, id))
}
