package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
	"github.com/iatic/ecole/storage/database"
	sqlxrepos "github.com/iatic/ecole/storage/database/sqlx"
	"github.com/iatic/ecole/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)

	// start CLI
	return &commandLine{
		db:      db,
		conf:    testutil.TestConfig(),
		usrRepo: usrRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotEngine string
	gooseRunFunc = func(command string, db *sql.DB, engine string, args ...string) error {
		gotEngine = engine
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	defer func() { gooseRunFunc = database.Run }()

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
				return
			}
			if gotEngine != core.EngineSQLite {
				t.Errorf("gooseRunFunc() engine = %s, want %s", gotEngine, core.EngineSQLite)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe@test.cd", "Awé", "S3cret!pwd", access.RoleStudent, "IATIC3")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "N3w!pwd"}},
		{name: "reset with uppercase email", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: extra{pwd: "N3wer!pwd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		var pwd string
		if extra, ok := tt.extra.(extra); ok {
			pwd = extra.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if err = refreshedUsr.CheckPassword(pwd); err != nil {
				t.Errorf("failed to update new password: %v", err)
			}
		})
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "email only", args: []string{"createadmin", "-email", "admin@test.cd"}, wantErr: errHelp},
		{name: "no password", args: []string{"createadmin", "-email", "admin@test.cd", "-firstname", "Admin"}, wantErr: errHelp},
		{name: "create", args: []string{"createadmin", "-email", " Admin@Test.cd ", "-firstname", " Admin "}, extra: "S3cret!pwd"},
		{name: "email taken", args: []string{"createadmin", "-email", "admin@test.cd", "-firstname", "Other"}, extra: "S3cret!pwd", wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "admin@test.cd"})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if !usr.IsAdmin() || usr.Firstname != "Admin" || usr.Class.Valid {
				t.Errorf("createadmin created %+v", usr)
			}
			if err = usr.CheckPassword(pwd); err != nil {
				t.Errorf("wrong password: %v", err)
			}
		})
	}
}
