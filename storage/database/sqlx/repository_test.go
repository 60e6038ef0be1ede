package sqlxrepos

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/absence"
	"github.com/iatic/ecole/core/dashboard"
	"github.com/iatic/ecole/core/note"
	"github.com/iatic/ecole/core/user"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	ctx := context.Background()
	usr := user.User{Email: "a@test.cd", Firstname: "A", Role: "teacher", PasswordHash: "hash", CreatedAt: core.Now()}
	query := regexp.QuoteMeta("INSERT INTO users (email, password_hash, firstname, role, class, created_at)")

	t.Run("returns the new id", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(query + `.*VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\) RETURNING id`).
			WithArgs(usr.Email, usr.PasswordHash, usr.Firstname, usr.Role, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		created, err := NewUserRepository(db).CreateUser(ctx, usr)
		require.NoError(t, err)
		assert.EqualValues(t, 7, created.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(query).WillReturnError(&pq.Error{Code: "23505"})

		_, err := NewUserRepository(db).CreateUser(ctx, usr)
		assert.Equal(t, user.ErrEmailExists, err)
		assert.True(t, core.IsConflictError(err))
	})

	t.Run("other failures are wrapped", func(t *testing.T) {
		db, mock := newMock(t)
		boom := errors.New("boom")
		mock.ExpectQuery(query).WillReturnError(boom)

		_, err := NewUserRepository(db).CreateUser(ctx, usr)
		require.Error(t, err)
		assert.False(t, core.IsConflictError(err))
		assert.ErrorIs(t, err, boom)
	})
}

func TestUserRepository_GetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("empty filter", func(t *testing.T) {
		db, _ := newMock(t)
		_, err := NewUserRepository(db).GetUser(ctx, user.GetFilter{})
		assert.Equal(t, errEmptyFilter, err)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND role = $2")).
			WithArgs(int64(3), "student").
			WillReturnError(sql.ErrNoRows)

		_, err := NewUserRepository(db).GetUser(ctx, user.GetFilter{ID: 3, Role: "student"})
		assert.Equal(t, user.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_QueryUsers(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "email", "password_hash", "firstname", "role", "class", "created_at", "subject"}
	now := time.Now().UTC()

	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		wantSQL  string
	}{
		{name: "default ordering", wantSQL: "FROM users ORDER BY created_at DESC, id DESC"},
		{
			name: "filtered", filter: &user.QueryFilter{Role: "student", Class: "IATIC3"},
			wantSQL: "WHERE role = $1 AND class = $2 ORDER BY created_at DESC, id DESC",
		},
		{
			name: "ordering with tie break", ordering: []core.DBOrdering{{Field: "firstname", Ascending: true}},
			wantSQL: "ORDER BY firstname ASC, id ASC",
		},
		{
			name:     "unknown fields are skipped",
			ordering: []core.DBOrdering{{Field: "password_hash"}, {Field: "id"}},
			wantSQL:  "ORDER BY id DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(regexp.QuoteMeta(tt.wantSQL) + "$").
				WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "a@test.cd", "hash", "A", "student", "IATIC3", now, nil))

			users, err := NewUserRepository(db).QueryUsers(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			require.Len(t, users, 1)
			assert.Equal(t, "IATIC3", users[0].Class.String)
			assert.False(t, users[0].Subject.Valid)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("subject then user", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE teacher_id = $1")).WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewUserRepository(db).DeleteUser(ctx, 4))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row affected", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("DELETE FROM subjects").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Equal(t, user.ErrNotFound, NewUserRepository(db).DeleteUser(ctx, 4))
	})
}

func TestNoteRepository_inTransaction(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewNoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id = $1")).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := core.WithTx(ctx, db, func(tx core.DBExecutor) error {
		_, err := repo.GetNote(ctx, 9, tx)
		return err
	})
	assert.Equal(t, note.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepository_DeleteAbsence(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM absences WHERE id = $1")).WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewAbsenceRepository(db).DeleteAbsence(context.Background(), 2)
	assert.Equal(t, absence.ErrNotFound, err)
}

func TestDashboardRepository_QueryStudentsAtRisk(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("HAVING AVG(n.value) < $3")+`\s+ORDER BY average ASC, u.id ASC\s+LIMIT \$4`).
		WithArgs(int64(1), "student", float64(dashboard.AtRiskThreshold), dashboard.AtRiskLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "average", "notes_count"}).
			AddRow(5, "Faible", "f@test.cd", 7.5, 2))

	students, err := NewDashboardRepository(db).QueryStudentsAtRisk(
		context.Background(), 1, dashboard.AtRiskThreshold, dashboard.AtRiskLimit,
	)
	require.NoError(t, err)
	assert.Equal(t, []dashboard.AtRiskStudent{{ID: 5, Name: "Faible", Email: "f@test.cd", Average: 7.5, NotesCount: 2}}, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
