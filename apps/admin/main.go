package main

import (
	"log"
	"os"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/storage/database"
	sqlxrepos "github.com/iatic/ecole/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	errAndDie(db.Ping())
	database.SetMigrationLogger(logger)

	// start CLI
	cli := commandLine{
		db:      db,
		conf:    conf,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
