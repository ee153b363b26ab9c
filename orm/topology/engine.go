package topology

import (
	"database/sql"
	"fmt"
	"lightorm/config"
	"lightorm/orm"
	"lightorm/orm/scope"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	urlScheme    = "mysql://"
	driverName   = "mysql"
	defaultLevel = "READ COMMITTED"
)

// EngineOptions 零值字段在合并时使用默认值
type EngineOptions struct {
	PoolSize    int
	MaxOverflow int
	// PoolTimeout 从连接池取连接的最长等待时间
	PoolTimeout time.Duration
	// PoolRecycle 连接的最长存活时间
	PoolRecycle    time.Duration
	IsolationLevel string
}

func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		PoolSize:       50,
		MaxOverflow:    100,
		PoolTimeout:    30 * time.Second,
		PoolRecycle:    2 * time.Hour,
		IsolationLevel: defaultLevel,
	}
}

// Merge 用 o 里非零的字段覆盖 base
func (base EngineOptions) Merge(o EngineOptions) EngineOptions {
	if o.PoolSize > 0 {
		base.PoolSize = o.PoolSize
	}
	if o.MaxOverflow > 0 {
		base.MaxOverflow = o.MaxOverflow
	}
	if o.PoolTimeout > 0 {
		base.PoolTimeout = o.PoolTimeout
	}
	if o.PoolRecycle > 0 {
		base.PoolRecycle = o.PoolRecycle
	}
	if o.IsolationLevel != "" {
		base.IsolationLevel = o.IsolationLevel
	}
	return base
}

func engineOptionsFromConfig(c config.EngineOptions) EngineOptions {
	return EngineOptions{
		PoolSize:       c.PoolSize,
		MaxOverflow:    c.MaxOverflow,
		PoolTimeout:    c.PoolTimeout.Std(),
		PoolRecycle:    c.PoolRecycle.Std(),
		IsolationLevel: c.IsolationLevel,
	}
}

func parseIsolationLevel(level string) (sql.IsolationLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "DEFAULT":
		return sql.LevelDefault, nil
	case "READ UNCOMMITTED":
		return sql.LevelReadUncommitted, nil
	case "READ COMMITTED":
		return sql.LevelReadCommitted, nil
	case "REPEATABLE READ":
		return sql.LevelRepeatableRead, nil
	case "SERIALIZABLE":
		return sql.LevelSerializable, nil
	}
	return 0, fmt.Errorf("%w: isolation level %q", ErrInvalidConfig, level)
}

// parseURL 只支持 mysql://，后面是 go-sql-driver 的 DSN
func parseURL(url string) (*mysql.Config, error) {
	dsn, ok := strings.CutPrefix(url, urlScheme)
	if !ok {
		scheme := url
		if i := strings.Index(url, "://"); i >= 0 {
			scheme = url[:i]
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, scheme)
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDriver, err)
	}
	return cfg, nil
}

// Engine 是一个 bind 在一种操作类型下的连接池
type Engine struct {
	Bind    string
	Op      scope.OperationType
	Options EngineOptions
	DB      *orm.DB

	// 去掉密码之后的地址，用于日志
	addr string

	closeOnce sync.Once
	closeErr  error
}

func (e *Engine) String() string {
	return fmt.Sprintf("%s/%s(%s)", e.Bind, e.Op, e.addr)
}

// Close 只会真正关闭一次
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.DB.Close()
	})
	return e.closeErr
}

func (e *Engine) Stats() sql.DBStats {
	return e.DB.Stats()
}
