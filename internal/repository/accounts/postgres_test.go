package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/autoreply-relay/internal/common"
	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var accountCols = []string{"id", "user_id", "page_id", "name", "access_token", "webhook_secret", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts (id, user_id, page_id, name, access_token, webhook_secret)")).
		WithArgs(sqlmock.AnyArg(), "user-1", "page-1", "Shop", "tok", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), &model.Account{UserID: "user-1", PageID: "page-1", Name: "Shop", AccessToken: "tok"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, created, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO accounts").WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &model.Account{UserID: "user-1", PageID: "page-1"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGetByPageID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(accountCols).
		AddRow("acc-1", "user-1", "page-1", "Shop", "tok", "s3cret", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE page_id = $1")).
		WithArgs("page-1").
		WillReturnRows(rows)

	got, err := repo.GetByPageID(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, "tok", got.AccessToken)
	assert.True(t, got.HasWebhookSecret())
}

func TestGetByPageID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE page_id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByPageID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(accountCols).
		AddRow("acc-1", "user-1", "page-1", "", "tok", "", time.Now()).
		AddRow("acc-2", "user-1", "page-2", "", "tok2", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE user_id = $1 ORDER BY created_at ASC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	got, err := repo.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "page-2", got[1].PageID)
}

func TestUpdate_NotOwned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts SET name = $3")).
		WithArgs("acc-1", "user-2", "n", "t", "").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &model.Account{ID: "acc-1", UserID: "user-2", Name: "n", AccessToken: "t"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1 AND user_id = $2")).
		WithArgs("acc-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1 AND user_id = $2")).
		WithArgs("acc-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "acc-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "user-2", "acc-1"), common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
