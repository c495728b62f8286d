package rules

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

var ruleCols = []string{"id", "account_id", "keyword", "reply_content", "is_active", "position", "actions", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestListActive_OrderedWithActions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(ruleCols).
		AddRow("r-1", "acc-1", "price", "It is 10 USD", true, 0, []byte(`[{"type":"add_tag","value":"VIP"}]`), now, now).
		AddRow("r-2", "acc-1", "hours", "9 to 5", true, 1, []byte(`[]`), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rules WHERE account_id = $1 AND is_active ORDER BY position ASC, created_at ASC, id ASC")).
		WithArgs("acc-1").
		WillReturnRows(rows)

	got, err := repo.ListActive(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r-1", got[0].ID)
	assert.Equal(t, []model.Action{{Type: model.ActionAddTag, Value: "VIP"}}, got[0].Actions)
	assert.Empty(t, got[1].Actions)
}

func TestListActive_BadActions(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(ruleCols).
		AddRow("r-1", "acc-1", "price", "x", true, 0, []byte(`{not json`), now, now)
	mock.ExpectQuery("FROM rules").WillReturnRows(rows)

	_, err := repo.ListActive(context.Background(), "acc-1")
	assert.Error(t, err)
}

func TestListForUser_FilterByAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("account_id IN (SELECT id FROM accounts WHERE user_id = $1) AND account_id = $2")).
		WithArgs("user-1", "acc-1").
		WillReturnRows(sqlmock.NewRows(ruleCols))

	got, err := repo.ListForUser(context.Background(), "user-1", "acc-1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rules (id, account_id, keyword, reply_content, is_active, position, actions)")).
		WithArgs(sqlmock.AnyArg(), "acc-1", "price", "10 USD", true, 2, []byte(`[{"type":"add_tag","value":"lead"}]`)).
		WillReturnRows(sqlmock.NewRows(ruleCols).
			AddRow("r-9", "acc-1", "price", "10 USD", true, 2, []byte(`[{"type":"add_tag","value":"lead"}]`), now, now))

	got, err := repo.Create(context.Background(), &model.Rule{
		AccountID:    "acc-1",
		Keyword:      "price",
		ReplyContent: "10 USD",
		IsActive:     true,
		Position:     2,
		Actions:      []model.Action{{Type: model.ActionAddTag, Value: "lead"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "r-9", got.ID)
	assert.Equal(t, []string{"lead"}, got.Tags())
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE rules")).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "user-2", &model.Rule{ID: "r-1"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rules WHERE account_id IN (SELECT id FROM accounts WHERE user_id = $1) AND id = $2")).
		WithArgs("user-1", "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "r-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
