package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/note"
	"github.com/iatic/ecole/core/user"
	"github.com/iatic/ecole/storage/database"
)

// tables in deletion order
var tables = []string{"messages", "absences", "notes", "subjects", "users"}

func init() {
	database.SetMigrationLogger(goose.NopLogger())
}

// TestConfig returns the configuration of a sqlite backed test run.
func TestConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Database.Engine = core.EngineSQLite
	return conf
}

func openDB(conf *core.Config, dir string) (*sqlx.DB, error) {
	conf.Database.Path = filepath.Join(dir, "test.sqlite")
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenDB opens a fresh migrated database for a whole test package; meant for TestMain.
func OpenDB() (*sqlx.DB, func()) {
	dir, err := os.MkdirTemp("", "ecole-test-")
	if err != nil {
		panic(errors.Wrap(err, "creating temp dir"))
	}
	db, err := openDB(TestConfig(), dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		panic(errors.Wrap(err, "opening test database"))
	}
	return db, func() {
		_ = db.Close()
		_ = os.RemoveAll(dir)
	}
}

// PrepareDB opens a fresh migrated database closed when t completes.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := openDB(TestConfig(), t.TempDir())
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetDB deletes all rows.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB(): %v", err)
		}
	}
}

// NewValidator returns a validator knowing every domain validation.
func NewValidator() *core.Validator {
	v := core.NewValidator()
	user.InitValidators(v)
	note.InitValidators(v)
	return v
}

// CreateUser inserts a User; class is only kept for students.
func CreateUser(t *testing.T, repo user.Repository, email, firstname, pwd, role, class string) user.User {
	t.Helper()
	usr := user.User{
		Email:     email,
		Firstname: firstname,
		Role:      role,
		CreatedAt: core.Now(),
	}
	if class != "" {
		usr.Class.SetValid(class)
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CreateSubject attaches subject name to teacher.
func CreateSubject(t *testing.T, repo user.Repository, teacher *user.User, name string) user.Subject {
	t.Helper()
	sub, err := repo.CreateSubject(context.Background(), user.Subject{Name: name, TeacherID: teacher.ID})
	if err != nil {
		t.Fatalf("CreateSubject(): %v", err)
	}
	teacher.Subject.SetValid(name)
	return sub
}
