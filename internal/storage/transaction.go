package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// TxFunc is a function that runs within a transaction.
type TxFunc func(*sql.Tx) error

// WithTransaction runs fn in a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit()
			if err != nil {
				err = fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
	}()

	return fn(tx)
}
