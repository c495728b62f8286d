package unmatched

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/autoreply-relay/internal/dbx"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, q *model.UnmatchedQuery) (*model.UnmatchedQuery, error) {
	if q.ID == "" {
		q.ID = uuid.Must(uuid.NewV7()).String()
	}

	query :=
		`INSERT INTO unmatched_queries (id, account_id, message_content, received_at)
		 VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, q.ID, q.AccountID, q.MessageContent, q.ReceivedAt); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return q, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, accountID string, limit int) ([]model.UnmatchedQuery, error) {
	query :=
		`SELECT id, account_id, message_content, received_at FROM unmatched_queries
		 WHERE account_id = $1
		 ORDER BY received_at DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []model.UnmatchedQuery{}
	for rows.Next() {
		var q model.UnmatchedQuery
		if err := rows.Scan(&q.ID, &q.AccountID, &q.MessageContent, &q.ReceivedAt); err != nil {
			return nil, pgerr.Wrap(err)
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM unmatched_queries WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, pgerr.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, pgerr.Wrap(err)
	}
	return n, nil
}
