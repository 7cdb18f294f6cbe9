package db

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// Connect opens a Postgres connection pool for the given DSN and verifies it
// with a ping. maxOpen and maxIdle bound the pool size.
func Connect(databaseURL string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
