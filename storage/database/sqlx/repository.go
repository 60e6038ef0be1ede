package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iatic/ecole/core"
)

// repository holds the default executor of a repository; every method may be given another one (a transaction).
// Queries use ? placeholders, rebound to the driver's bindvar type.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// insert runs an INSERT ... RETURNING id statement and returns the new id.
func insert(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int64, error) {
	var id int64
	err := exec.QueryRowxContext(ctx, exec.Rebind(query), args...).Scan(&id)
	return id, err
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(query), args...)
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(query), args...)
}

// execAffecting runs a statement and fails with notFound when it affected no row.
func execAffecting(ctx context.Context, exec core.DBExecutor, notFound error, query string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapNoRowsErr maps "no rows" errors to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err is a unique constraint violation of either engine.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
