package messages

import (
	"context"

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

func (r *PostgresRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}

	query :=
		`INSERT INTO messages (id, user_id, contact_id, text, sender, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.UserID, msg.ContactID, msg.Text, string(msg.Sender), msg.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return msg, nil
}

func (r *PostgresRepository) ListForContact(ctx context.Context, contactID string, limit int) ([]model.Message, error) {
	query :=
		`SELECT id, user_id, contact_id, text, sender, created_at FROM (
		     SELECT id, user_id, contact_id, text, sender, created_at FROM messages
		     WHERE contact_id = $1
		     ORDER BY created_at DESC, id DESC
		     LIMIT $2
		 ) recent
		 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, contactID, limit)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []model.Message{}
	for rows.Next() {
		var m model.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.UserID, &m.ContactID, &m.Text, &sender, &m.CreatedAt); err != nil {
			return nil, pgerr.Wrap(err)
		}
		m.Sender = model.Sender(sender)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return result, nil
}
