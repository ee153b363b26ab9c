package orm

import (
	"context"
	"database/sql"
	"errors"
)

var (
	_ Session = &Tx{}
	_ Session = &DB{}
)

// Session 代表能执行查询的对象，DB 或者 Tx
type Session interface {
	getCore() core
	queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	execContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Tx struct {
	tx *sql.Tx
	// 事务独占的连接，结束之后归还连接池
	conn *sql.Conn
	// tx为了得到core,保留自己创建的db
	db *DB

	done bool
}

func (t *Tx) getCore() core {
	return t.db.core
}

func (t *Tx) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// Done 事务已经提交或者回滚
func (t *Tx) Done() bool {
	return t.done
}

func (t *Tx) Commit() error {
	t.done = true
	err := t.tx.Commit()
	return errors.Join(err, t.release())
}

func (t *Tx) Rollback() error {
	t.done = true
	err := t.tx.Rollback()
	return errors.Join(err, t.release())
}

func (t *Tx) RollbackIfNotCommit() error {
	t.done = true
	err := t.tx.Rollback()
	// 尝试回滚如果事务已经被提交或者回滚那么会返回ErrTxDone
	if err == sql.ErrTxDone {
		err = nil
	}
	return errors.Join(err, t.release())
}

func (t *Tx) release() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
