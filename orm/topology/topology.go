package topology

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"lightorm/config"
	"lightorm/orm"
	"lightorm/orm/model"
	"lightorm/orm/scope"

	"golang.org/x/sync/errgroup"
)

var (
	ErrUnsupportedDriver    = errors.New("topology: unsupported database driver")
	ErrModelNotRegistered   = errors.New("topology: no model registered for bind")
	ErrInvalidConfig        = errors.New("topology: invalid database config")
	ErrInvalidOperationType = scope.ErrInvalidOperationType
	ErrNoSessionFactory     = scope.ErrNoSessionFactory
	ErrEngineDisposed       = scope.ErrEngineDisposed
)

// Opener 打开一个连接池，测试里可以替换掉
type Opener func(driver, dsn string) (*sql.DB, error)

type SessionOptions struct {
	ReadOnly bool
}

// Topology 管理所有 bind 在读写两种操作类型下的 engine。
// 启动时创建，之后结构不再变化，进程退出时 Dispose
type Topology struct {
	mu               sync.RWMutex
	bindKeyModels    map[string]model.Base
	engines          map[scope.OperationType]map[string]*Engine
	bindModelEngines map[scope.OperationType]map[model.Base]*Engine
	factories        map[scope.OperationType]*scope.Factory

	registry model.Registry
	opener   Opener
	mdls     []orm.Middleware
	logFunc  func(format string, args ...any)

	disposed    atomic.Bool
	disposeOnce sync.Once
	disposeErr  error
}

type Option func(t *Topology)

func WithOpener(opener Opener) Option {
	return func(t *Topology) {
		t.opener = opener
	}
}

// WithMiddlewares 每个 engine 都挂上这些查询中间件
func WithMiddlewares(mdls ...orm.Middleware) Option {
	return func(t *Topology) {
		t.mdls = mdls
	}
}

func WithRegistry(r model.Registry) Option {
	return func(t *Topology) {
		t.registry = r
	}
}

func WithLogFunc(fn func(format string, args ...any)) Option {
	return func(t *Topology) {
		t.logFunc = fn
	}
}

func New(opts ...Option) *Topology {
	t := &Topology{
		bindKeyModels:    make(map[string]model.Base),
		engines:          make(map[scope.OperationType]map[string]*Engine, 2),
		bindModelEngines: make(map[scope.OperationType]map[model.Base]*Engine, 2),
		factories:        make(map[scope.OperationType]*scope.Factory, 2),
		registry:         model.NewRegistry(),
		opener:           sql.Open,
		logFunc:          log.Printf,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register 重复注册以最后一次为准
func (t *Topology) Register(bind string, base model.Base) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindKeyModels[bind] = base
}

// Registry 所有 engine 和会话工厂共用的元数据
func (t *Topology) Registry() model.Registry {
	return t.registry
}

// CreateEngine 创建连接池并且立刻建立一个连接确认可达，失败不重试
func (t *Topology) CreateEngine(ctx context.Context, bind string, url string,
	op scope.OperationType, opts EngineOptions) (*Engine, error) {
	if t.disposed.Load() {
		return nil, ErrEngineDisposed
	}
	t.mu.RLock()
	base, ok := t.bindKeyModels[bind]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, bind)
	}
	if op != scope.OpRead && op != scope.OpWrite {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperationType, op)
	}
	dsn, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	merged := DefaultEngineOptions().Merge(opts)
	level, err := parseIsolationLevel(merged.IsolationLevel)
	if err != nil {
		return nil, err
	}

	sqlDB, err := t.opener(driverName, dsn.FormatDSN())
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(merged.PoolSize + merged.MaxOverflow)
	sqlDB.SetMaxIdleConns(merged.PoolSize)
	sqlDB.SetConnMaxLifetime(merged.PoolRecycle)

	pctx, cancel := context.WithTimeout(ctx, merged.PoolTimeout)
	defer cancel()
	if err = sqlDB.PingContext(pctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("topology: connect %s (%s): %w", bind, dsn.Addr, err)
	}

	db, err := orm.OpenDB(sqlDB,
		orm.DBWithDialect(orm.DialectMySQL),
		orm.DBWithRegistry(t.registry),
		orm.DBWithCheckoutTimeout(merged.PoolTimeout),
		orm.DBWithTxOptions(&sql.TxOptions{Isolation: level}),
		orm.DBWithMiddleware(t.mdls...))
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	e := &Engine{
		Bind:    bind,
		Op:      op,
		Options: merged,
		DB:      db,
		addr:    dsn.Addr,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engines[op] == nil {
		t.engines[op] = make(map[string]*Engine)
		t.bindModelEngines[op] = make(map[model.Base]*Engine)
	}
	if old, ok := t.engines[op][bind]; ok {
		// 同一个 bind 只保留一个连接池
		_ = old.Close()
	}
	t.engines[op][bind] = e
	t.bindModelEngines[op][base] = e
	t.logFunc("topology: engine %s ready, pool size %d, max overflow %d", e, merged.PoolSize, merged.MaxOverflow)
	return e, nil
}

// BuildSessions 每个有 engine 的操作类型建一个会话工厂，没有 engine 的操作类型就没有工厂
func (t *Topology) BuildSessions(opts map[scope.OperationType]SessionOptions) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.factories = make(map[scope.OperationType]*scope.Factory, 2)
	for op, engines := range t.bindModelEngines {
		if len(engines) == 0 {
			continue
		}
		routes := make(map[model.Base]*orm.DB, len(engines))
		for base, e := range engines {
			routes[base] = e.DB
		}
		fopts := []scope.FactoryOption{scope.FactoryWithRegistry(t.registry)}
		if o, ok := opts[op]; ok && o.ReadOnly {
			fopts = append(fopts, scope.FactoryWithTxOptions(&sql.TxOptions{ReadOnly: true}))
		}
		t.factories[op] = scope.NewFactory(op, routes, fopts...)
	}
}

var _ scope.FactoryProvider = &Topology{}

func (t *Topology) Factory(op scope.OperationType) (*scope.Factory, error) {
	if t.disposed.Load() {
		return nil, ErrEngineDisposed
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.factories[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSessionFactory, op)
	}
	return f, nil
}

func (t *Topology) Engine(op scope.OperationType, bind string) (*Engine, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.engines[op][bind]
	return e, ok
}

// Engines 按 bind 名和操作类型排好序
func (t *Topology) Engines() []*Engine {
	t.mu.RLock()
	res := make([]*Engine, 0, len(t.engines[scope.OpRead])+len(t.engines[scope.OpWrite]))
	for _, engines := range t.engines {
		for _, e := range engines {
			res = append(res, e)
		}
	}
	t.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].Bind != res[j].Bind {
			return res[i].Bind < res[j].Bind
		}
		return res[i].Op < res[j].Op
	})
	return res
}

// Ping 检查所有 engine 是否可达
func (t *Topology) Ping(ctx context.Context) error {
	var err error
	for _, e := range t.Engines() {
		if pErr := e.DB.Ping(ctx); pErr != nil {
			err = errors.Join(err, fmt.Errorf("topology: ping %s: %w", e, pErr))
		}
	}
	return err
}

// Dispose 关闭所有连接池，之后再获取会话都会返回 ErrEngineDisposed。
// 重复调用直接返回第一次的结果
func (t *Topology) Dispose() error {
	t.disposeOnce.Do(func() {
		t.disposed.Store(true)
		t.mu.RLock()
		for _, f := range t.factories {
			f.Dispose()
		}
		t.mu.RUnlock()

		var (
			g    errgroup.Group
			mu   sync.Mutex
			errs error
		)
		for _, e := range t.Engines() {
			e := e
			g.Go(func() error {
				if err := e.Close(); err != nil {
					mu.Lock()
					errs = errors.Join(errs, fmt.Errorf("topology: close %s: %w", e, err))
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		t.disposeErr = errs
		t.logFunc("topology: disposed")
	})
	return t.disposeErr
}

func (t *Topology) Disposed() bool {
	return t.disposed.Load()
}

// Open 校验数据库配置，并发创建所有 engine，最后建好会话工厂。
// 任何一个 engine 失败都会关闭已经创建的 engine
func Open(ctx context.Context, dbs config.Databases, opts ...Option) (*Topology, error) {
	if len(dbs) == 0 {
		return nil, fmt.Errorf("%w: no databases", ErrInvalidConfig)
	}
	binds := make([]string, 0, len(dbs))
	for bind := range dbs {
		binds = append(binds, bind)
	}
	sort.Strings(binds)

	t := New(opts...)
	ops := make(map[string]scope.OperationType, len(dbs))
	sessOpts := make(map[scope.OperationType]SessionOptions, 2)
	for _, bind := range binds {
		c := dbs[bind]
		if c.Model == "" {
			return nil, fmt.Errorf("%w: %s: model is required", ErrInvalidConfig, bind)
		}
		if c.URL == "" {
			return nil, fmt.Errorf("%w: %s: url is required", ErrInvalidConfig, bind)
		}
		op, err := scope.ParseOperationType(c.OperationType)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", bind, err)
		}
		ops[bind] = op
		if c.SessionOptions.ReadOnly {
			sessOpts[op] = SessionOptions{ReadOnly: true}
		}
		t.Register(bind, model.Base(c.Model))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, bind := range binds {
		bind := bind
		c := dbs[bind]
		g.Go(func() error {
			_, err := t.CreateEngine(gctx, bind, c.URL, ops[bind], engineOptionsFromConfig(c.EngineOptions))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		_ = t.Dispose()
		return nil, err
	}
	t.BuildSessions(sessOpts)
	return t, nil
}
