package implementation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"design-companion-be/internal/repository/contract"
)

const sqliteKVSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
)`

type SQLiteKVRepository struct {
	conn *sql.DB
}

func NewSQLiteKVRepository(conn *sql.DB) (contract.KVRepository, error) {
	if _, err := conn.Exec(sqliteKVSchema); err != nil {
		return nil, err
	}
	return &SQLiteKVRepository{conn: conn}, nil
}

func (r *SQLiteKVRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := r.conn.QueryRowContext(ctx,
		"SELECT value FROM kv_entries WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contract.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *SQLiteKVRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO kv_entries (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().UnixMilli(),
	)
	return err
}

func (r *SQLiteKVRepository) Delete(ctx context.Context, namespace, key string) error {
	_, err := r.conn.ExecContext(ctx,
		"DELETE FROM kv_entries WHERE namespace = ? AND key = ?",
		namespace, key,
	)
	return err
}
