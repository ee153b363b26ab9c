package orm

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lightorm/orm/internal/errs"
	"lightorm/orm/internal/valuer"
	"lightorm/orm/model"
)

var (
	ErrNoRows = errs.ErrNoRows
	// ErrPoolTimeout 可以用 errors.Is 判断，调用方自己决定要不要重试
	ErrPoolTimeout = errs.ErrPoolTimeout
)

type DBOption func(db *DB)

// DB 是一个sql.DB的装饰器
type DB struct {
	core
	db *sql.DB
	// 从连接池取连接的最长等待时间，0 代表一直等
	checkoutTimeout time.Duration
	// BeginTx 没有指定隔离级别时使用
	txOpts *sql.TxOptions
}

func Open(driver string, dataSourceName string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, opts...)
}

func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			r:       model.NewRegistry(),
			creator: valuer.NewUnsafeValue,
			dialect: DialectMySQL,
		},
		db: db,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res, nil
}

func DBWithMiddleware(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithReflect() DBOption {
	return func(db *DB) {
		db.creator = valuer.NewReflectValue
	}
}

// DBWithRegistry 多个 DB 共享同一份元数据
func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

func DBWithCheckoutTimeout(timeout time.Duration) DBOption {
	return func(db *DB) {
		db.checkoutTimeout = timeout
	}
}

func DBWithTxOptions(opts *sql.TxOptions) DBOption {
	return func(db *DB) {
		db.txOpts = opts
	}
}

// BeginTx 先从连接池取出一个连接再开事务，取连接受 checkoutTimeout 约束，
// 事务本身的生命周期只受 ctx 约束
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	conn, err := db.conn(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, db.txOptions(opts))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Tx{
		tx:   tx,
		conn: conn,
		db:   db,
	}, nil
}

func (db *DB) txOptions(opts *sql.TxOptions) *sql.TxOptions {
	if db.txOpts == nil {
		return opts
	}
	if opts == nil {
		return db.txOpts
	}
	res := *opts
	if res.Isolation == sql.LevelDefault {
		res.Isolation = db.txOpts.Isolation
	}
	return &res
}

func (db *DB) conn(ctx context.Context) (*sql.Conn, error) {
	if db.checkoutTimeout <= 0 {
		return db.db.Conn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, db.checkoutTimeout)
	defer cancel()
	conn, err := db.db.Conn(cctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, errs.NewErrPoolTimeout(err)
	}
	return conn, err
}

func (db *DB) getCore() core {
	return db.core
}

// Registry 暴露元数据注册中心，路由实体的时候要用
func (db *DB) Registry() model.Registry {
	return db.r
}

func (db *DB) DoTx(ctx context.Context,
	fn func(ctx context.Context, tx *Tx) error,
	opts *sql.TxOptions) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	panicked := true
	defer func() {
		if panicked || err != nil {
			e := tx.Rollback()
			err = errs.NewErrFailedToRollbackTx(err, e, panicked)
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(ctx, tx)
	panicked = false
	return err
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// Close 关闭连接池，正在使用的连接归还之后才会真正关闭
func (db *DB) Close() error {
	return db.db.Close()
}
