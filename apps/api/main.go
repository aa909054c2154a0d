package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/classbook/apps/api/echo"
	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/grade"
	"github.com/trezcool/classbook/core/report"
	"github.com/trezcool/classbook/core/user"
	logsvc "github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/database"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf, dbLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository())
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(), crsSvc)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(), crsSvc)
	gradSvc := grade.NewService(sqlxrepos.NewGradeRepository(), crsSvc, logger)
	reportSvc := report.NewService(crsSvc, gradSvc, attSvc)

	created, err := usrSvc.EnsureAdmin(context.Background(), db, conf.Admin.Username, conf.Admin.Password)
	if err != nil {
		logger.Fatal(fmt.Sprintf("creating default admin: %v", err), err)
	}
	if created {
		logger.Warn(fmt.Sprintf("default admin %q created, change its password", conf.Admin.Username))
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db").Set(db.DriverName())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			DB:            db,
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			AttendanceSvc: attSvc,
			GradeSvc:      gradSvc,
			ReportSvc:     reportSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpDB opens the configured database, the local SQLite file when the server is
// unreachable, then brings its schema up to date.
func setUpDB(conf *core.Config, logger core.Logger) (*sqlx.DB, error) {
	db, err := database.Open(conf, logger)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
