package contacts

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/capitalize-ai/autoreply-relay/internal/dbx"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/pgerr"
)

const columns = `id, user_id, account_id, platform_user_id, name, profile_pic, tags, last_interaction, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (*model.Contact, error) {
	c := &model.Contact{}
	var tags pq.StringArray
	err := s.Scan(&c.ID, &c.UserID, &c.AccountID, &c.PlatformUserID, &c.Name, &c.ProfilePic,
		&tags, &c.LastInteraction, &c.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	c.Tags = []string(tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	id := contact.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	// last_interaction never moves backwards, so the later of two racing
	// deliveries wins regardless of commit order.
	query :=
		`INSERT INTO contacts (id, user_id, account_id, platform_user_id, name, profile_pic, tags, last_interaction)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, platform_user_id) DO UPDATE
		 SET last_interaction = GREATEST(contacts.last_interaction, EXCLUDED.last_interaction),
		     name = COALESCE(NULLIF(EXCLUDED.name, ''), contacts.name),
		     profile_pic = COALESCE(NULLIF(EXCLUDED.profile_pic, ''), contacts.profile_pic)
		 RETURNING ` + columns

	return scanContact(r.db.QueryRowContext(ctx, query,
		id, contact.UserID, contact.AccountID, contact.PlatformUserID, contact.Name, contact.ProfilePic,
		pq.StringArray(dedupe(contact.Tags)), contact.LastInteraction))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	query := `SELECT ` + columns + ` FROM contacts WHERE id = $1`
	return scanContact(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, filter model.ContactFilter) ([]model.Contact, error) {
	query :=
		`SELECT ` + columns + ` FROM contacts
		 WHERE user_id = $1
		   AND ($2 = ''
		        OR name ILIKE '%' || $2 || '%'
		        OR platform_user_id LIKE '%' || $2 || '%'
		        OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE '%' || $2 || '%'))
		 ORDER BY last_interaction DESC
		 LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, userID, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return result, nil
}

func (r *PostgresRepository) AddTags(ctx context.Context, id string, tags ...string) ([]string, error) {
	// Union happens in one statement; first-seen order is kept.
	query :=
		`UPDATE contacts
		 SET tags = ARRAY(
		     SELECT u.t FROM unnest(contacts.tags || $2::text[]) WITH ORDINALITY AS u(t, n)
		     GROUP BY u.t ORDER BY min(u.n))
		 WHERE id = $1
		 RETURNING tags`

	var result pq.StringArray
	err := r.db.QueryRowContext(ctx, query, id, pq.StringArray(dedupe(tags))).Scan(&result)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return []string(result), nil
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
