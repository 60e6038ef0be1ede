package database

import (
	"context"
	"database/sql"
	"embed"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/iatic/ecole/core"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

var (
	ErrUnknownEngine = errors.New("unknown database engine")

	gooseMu     sync.Mutex
	gooseLogger goose.Logger = log.New(os.Stdout, "MIGRATE : ", log.LstdFlags)
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about
	sqlx.BindDriver(core.EngineSQLite, sqlx.QUESTION)
}

// SetMigrationLogger replaces the logger migrations report to.
func SetMigrationLogger(l goose.Logger) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	gooseLogger = l
}

func postgresDSN(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SQLiteDSN returns the modernc.org/sqlite DSN of the database file at fp.
func SQLiteDSN(fp string) string {
	q := make(url.Values)
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_time_format", "sqlite")
	return "file:" + fp + "?" + q.Encode()
}

// Open opens the configured database. SQLite databases use a single connection, serializing all access.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case core.EnginePostgres:
		db, err := sqlx.Open("postgres", postgresDSN(conf.Database.Name, false, conf))
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
		db.SetMaxOpenConns(conf.Database.MaxOpenConns)
		return db, nil
	case core.EngineSQLite:
		db, err := sqlx.Open(core.EngineSQLite, SQLiteDSN(conf.Database.Path))
		if err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, errors.Wrap(ErrUnknownEngine, conf.Database.Engine)
	}
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	err := db.Get(&found, query, name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return found, err
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	found, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := "CREATE USER " + pq.QuoteIdentifier(conf.Database.User) +
			" CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the app user and database (postgres) or the database directory (sqlite).
func CreateIfNotExist(conf *core.Config) error {
	switch conf.Database.Engine {
	case core.EngineSQLite:
		return errors.Wrap(os.MkdirAll(filepath.Dir(conf.Database.Path), 0o755), "creating database directory")
	case core.EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownEngine, conf.Database.Engine)
	}

	// connect as admin
	adminDB, err := sqlx.Open("postgres", postgresDSN("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = adminDB.Close() }()

	if err = ping(adminDB); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(adminDB, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	db, err := sqlx.Open("postgres", postgresDSN("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return createDB(db, conf)
}

func gooseDialect(engine string) (string, error) {
	switch engine {
	case core.EnginePostgres:
		return "postgres", nil
	case core.EngineSQLite:
		return "sqlite3", nil
	}
	return "", errors.Wrap(ErrUnknownEngine, engine)
}

// Run runs a goose command (up, down, status, version, ...) against the embedded migrations of engine.
func Run(command string, db *sql.DB, engine string, args ...string) error {
	dialect, err := gooseDialect(engine)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger)
	if err = goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	dir := path.Join("migrations", engine)
	if err = goose.RunContext(context.Background(), command, db, dir, args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}

// Migrate applies all pending migrations.
func Migrate(db *sqlx.DB, engine string) error {
	return errors.Wrap(Run("up", db.DB, engine), "migrating database")
}
