package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/away0419/eunoia/internal/errors"
)

// querier is satisfied by both *sql.DB and a *sql.Conn inside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetValue returns the stored value for (namespace, key).
// The boolean is false when no row exists.
func GetValue(ctx context.Context, q querier, namespace, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr(ctx, "read "+namespace+"/"+key, err)
	}
	return value, true, nil
}

// PutValue inserts or replaces the value for (namespace, key).
func PutValue(ctx context.Context, q querier, namespace, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, namespace, key, value, time.Now().Unix())
	if err != nil {
		return storageErr(ctx, "write "+namespace+"/"+key, err)
	}
	return nil
}

// UpdateValue replaces (namespace, key) with what fn returns for the current
// value, inside a BEGIN IMMEDIATE transaction. The write lock is taken before
// the read, so a second process sharing the database file waits (up to the
// busy timeout) instead of overwriting the update. An error from fn rolls
// back and is returned unchanged.
func UpdateValue(ctx context.Context, database *sql.DB, namespace, key string, fn func(value string, ok bool) (string, error)) (err error) {
	op := "update " + namespace + "/" + key
	conn, err := database.Conn(ctx)
	if err != nil {
		return storageErr(ctx, op, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return storageErr(ctx, op, err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), `ROLLBACK`)
		}
	}()

	value, ok, err := GetValue(ctx, conn, namespace, key)
	if err != nil {
		return err
	}
	next, err := fn(value, ok)
	if err != nil {
		return err
	}
	if err := PutValue(ctx, conn, namespace, key, next); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return storageErr(ctx, op, err)
	}
	return nil
}

// storageErr reports a failure caused by ctx ending as ErrCancelled, and
// anything else as ErrStorage.
func storageErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled(op)
	}
	return errors.NewStorage(op, err)
}
