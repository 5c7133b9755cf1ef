package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/student-portal-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN renders the lib/pq connection string.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

var shared struct {
	mu sync.Mutex
	db *sqlx.DB
}

// Acquire returns the process wide handle, connecting on first use. A failed
// connection is not cached so a later call may retry.
func Acquire(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return acquire(func() (*sqlx.DB, error) { return NewPostgres(cfg) })
}

func acquire(connect func() (*sqlx.DB, error)) (*sqlx.DB, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.db != nil {
		return shared.db, nil
	}
	db, err := connect()
	if err != nil {
		return nil, err
	}
	shared.db = db
	return db, nil
}

// Release closes the shared handle if one was acquired.
func Release() error {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.db == nil {
		return nil
	}
	err := shared.db.Close()
	shared.db = nil
	return err
}
