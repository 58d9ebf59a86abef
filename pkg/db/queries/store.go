package queries

import (
	"github.com/jmoiron/sqlx"
)

// Store is the single persistence gateway used by both the HTTP handlers and
// the generation pipeline.
type Store struct {
	db *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{db: conn}
}

// DB exposes the underlying pool (health checks, migrations).
func (s *Store) DB() *sqlx.DB {
	return s.db
}
