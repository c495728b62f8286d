package unmatched

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
)

func TestInsert_KeepsRawText(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unmatched_queries (id, account_id, message_content, received_at)")).
		WithArgs(sqlmock.AnyArg(), "acc-1", "Do You Ship To MARS?", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err = repo.Insert(context.Background(), &model.UnmatchedQuery{AccountID: "acc-1", MessageContent: "Do You Ship To MARS?", ReceivedAt: at})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY received_at DESC")).
		WithArgs("acc-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "message_content", "received_at"}).
			AddRow("q-2", "acc-1", "newer", now).
			AddRow("q-1", "acc-1", "older", now.Add(-time.Hour)))

	got, err := repo.ListRecent(context.Background(), "acc-1", 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].MessageContent)
}

func TestDeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	cutoff := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM unmatched_queries WHERE received_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestDeleteOlderThan_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM unmatched_queries").WillReturnError(errors.New("timeout"))

	_, err = repo.DeleteOlderThan(context.Background(), time.Now())
	assert.Error(t, err)
}
