package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/user"
	logsvc "github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/database"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	// set up DB
	db, err := database.Open(conf, logger)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:     conf,
		db:       db,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(), course.NewService(sqlxrepos.NewCourseRepository())),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
