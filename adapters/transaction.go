package adapters

import (
	"context"
	"database/sql"

	"github.com/jitsucom/sheetloader/errorj"
)

//Transaction is sql transaction wrapper. Used for handling errors with db type (Postgres, Snowflake or DuckDB)
//on Commit() and Rollback() calls
type Transaction struct {
	ctx    context.Context
	dbType string
	tx     *sql.Tx
}

func openTx(ctx context.Context, dataSource *sql.DB, dbType string) (*Transaction, error) {
	tx, err := dataSource.BeginTx(ctx, nil)
	if err != nil {
		return nil, errorj.BeginTransactionError.Wrap(err, "failed to begin %s transaction", dbType).
			WithProperty(errorj.DestinationType, dbType)
	}

	return &Transaction{ctx: ctx, dbType: dbType, tx: tx}, nil
}

//ExecContext executes statement in the transaction
func (t *Transaction) ExecContext(query string, args ...interface{}) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, args...)
}

//Commit commits underlying transaction and returns err if occurred
func (t *Transaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return errorj.CommitTransactionError.Wrap(err, "failed to commit %s transaction", t.dbType).
			WithProperty(errorj.DestinationType, t.dbType)
	}

	return nil
}

//Rollback cancels underlying transaction and returns err if occurred
func (t *Transaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errorj.RollbackTransactionError.Wrap(err, "failed to rollback %s transaction", t.dbType).
			WithProperty(errorj.DestinationType, t.dbType)
	}

	return nil
}

//finish commits transaction if err is nil, otherwise rolls it back
//returns err grouped with rollback or commit error
func (t *Transaction) finish(err error) error {
	if err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errorj.Group(err, rbErr)
		}
		return err
	}

	return t.Commit()
}
