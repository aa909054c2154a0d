package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/classbook/core"
	appfs "github.com/trezcool/classbook/fs"
	"github.com/trezcool/classbook/services/metrics"
)

// Engines
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite3"
)

var (
	pingAttempts = 30 // mockable

	errUnknownEngine = errors.New("unknown database engine")
)

func openPostgres(dbName string, conf *core.Config) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   EnginePostgres,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(EnginePostgres, u.String())
}

// OpenSQLite opens the SQLite database at dsn (a file path or a "file:" URI) with
// foreign keys enforced. A single connection is kept so writers never contend.
func OpenSQLite(dsn string) (*sqlx.DB, error) {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_foreign_keys=1&_busy_timeout=5000"

	db, err := sqlx.Open(EngineSQLite, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Open connects to the configured engine. When the Postgres server cannot be
// reached and fallback is enabled, the local SQLite file is opened instead.
func Open(conf *core.Config, logger core.Logger) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case EngineSQLite:
		return openAndPing(func() (*sqlx.DB, error) { return OpenSQLite(conf.Database.SQLitePath) })
	case EnginePostgres:
		db, err := openServer(conf)
		if err == nil {
			return db, nil
		}
		if !conf.Database.Fallback {
			return nil, err
		}
		logger.Warn(
			fmt.Sprintf("database server unreachable, falling back to %s", conf.Database.SQLitePath),
			err,
		)
		metrics.DatabaseFallbacks.Inc()
		return openAndPing(func() (*sqlx.DB, error) { return OpenSQLite(conf.Database.SQLitePath) })
	default:
		return nil, errors.Wrap(errUnknownEngine, conf.Database.Engine)
	}
}

func openServer(conf *core.Config) (*sqlx.DB, error) {
	if err := CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	return openAndPing(func() (*sqlx.DB, error) { return openPostgres(conf.Database.Name, conf) })
}

func openAndPing(open func() (*sqlx.DB, error)) (*sqlx.DB, error) {
	db, err := open()
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	for attempts := 1; attempts <= pingAttempts; attempts++ {
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

func createDB(db *sql.DB, conf *core.Config) error {
	var exists bool
	err := db.QueryRow("SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %q", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the configured Postgres database when missing.
func CreateIfNotExist(conf *core.Config) error {
	db, err := openAndPing(func() (*sqlx.DB, error) { return openPostgres("postgres", conf) })
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return createDB(db.DB, conf)
}

// MigrationsDir is the embedded goose directory of the engine db runs on.
func MigrationsDir(db *sqlx.DB) string {
	return path.Join("migrations", db.DriverName())
}

// Migrate applies every pending migration of the engine db runs on.
func Migrate(db *sqlx.DB) error {
	return RunMigrations("up", db)
}

// RunMigrations runs a goose command against the embedded migrations.
func RunMigrations(command string, db *sqlx.DB, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Run(command, db.DB, MigrationsDir(db), args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}
