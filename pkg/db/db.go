package db

import (
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver for database/sql
	_ "github.com/mattn/go-sqlite3" // SQLite driver for local development and tests
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB holds the process-wide connection pool opened by InitDB.
var DB *sqlx.DB

// ParseURL maps a DATABASE_URL onto a database/sql driver name and DSN.
// "sqlite://path" and "file:" URLs select SQLite, everything else Postgres.
func ParseURL(dbURL string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(dbURL, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(dbURL, "sqlite://")
	case strings.HasPrefix(dbURL, "sqlite3://"):
		return DriverSQLite, strings.TrimPrefix(dbURL, "sqlite3://")
	case strings.HasPrefix(dbURL, "file:"):
		return DriverSQLite, dbURL
	default:
		return DriverPostgres, dbURL
	}
}

// Open connects to the database named by dbURL and verifies the connection.
func Open(dbURL string) (*sqlx.DB, error) {
	driver, dsn := ParseURL(dbURL)
	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		log.Errorf("Failed to connect to database: %v", err)
		return nil, err
	}

	if err = conn.Ping(); err != nil {
		log.Errorf("Failed to ping database: %v", err)
		conn.Close()
		return nil, err
	}

	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases alive and serializes writers.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(10)
	}

	log.Infof("Database connection pool initialized successfully (driver=%s).", driver)
	return conn, nil
}

// InitDB opens the pool and stores it in DB.
func InitDB(dbURL string) error {
	conn, err := Open(dbURL)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Errorf("Error closing database connection: %v", err)
		} else {
			log.Info("Database connection pool closed.")
		}
	}
}
