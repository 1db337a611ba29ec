// Package dummydb provides in-memory repositories for tests; no SQL
// database is needed to exercise the services or the API.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/achievement"
	"github.com/mwalimu/sifa/core/user"
)

type (
	userTable struct {
		sync.RWMutex
		table map[string]*user.User // keyed by User.ID
	}

	achievementTable struct {
		sync.RWMutex
		table map[string]*achievement.Achievement // keyed by Achievement.ID
	}

	DB struct {
		user        *userTable
		achievement *achievementTable
	}
)

var _ core.DB = (*DB)(nil)

func NewDB() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		achievement: &achievementTable{table: make(map[string]*achievement.Achievement)},
	}
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.achievement.Lock()
	db.achievement.table = make(map[string]*achievement.Achievement)
	db.achievement.Unlock()
}

// core.DB implementation; the dummy repositories never touch SQL so the
// executor methods are inert and transactions are no-ops.

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return &tx{db: db}, nil
}

type tx struct {
	db *DB
}

func (t *tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (t *tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }
