package core

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestWithTx(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM notes").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := WithTx(context.Background(), db, func(tx DBExecutor) error {
			_, err := tx.ExecContext(context.Background(), "DELETE FROM notes WHERE id = 1")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO messages").WillReturnError(errBoom)
		mock.ExpectRollback()

		err := WithTx(context.Background(), db, func(tx DBExecutor) error {
			_, err := tx.ExecContext(context.Background(), "INSERT INTO messages (content) VALUES ('hi')")
			return errors.Wrap(err, "inserting message")
		})
		assert.Equal(t, errBoom, errors.Cause(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = WithTx(context.Background(), db, func(tx DBExecutor) error {
				panic("oops")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(errBoom)

		called := false
		err := WithTx(context.Background(), db, func(tx DBExecutor) error {
			called = true
			return nil
		})
		assert.Equal(t, errBoom, errors.Cause(err))
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "created_at DESC", DBOrdering{Field: "created_at"}.String())
	assert.Equal(t, "firstname ASC", DBOrdering{Field: "firstname", Ascending: true}.String())
}
