package repo

import (
	"context"
	"errors"
	"lightorm/orm"
	"lightorm/orm/query"
	"lightorm/orm/scope"
	"log"
)

// Repository 在工作单元里对 T 做通用的读写。
// ctx 里有 Scope（例如一次 HTTP 请求）就复用它，否则自己创建一个并在结束时释放
type Repository[T any] struct {
	provider scope.FactoryProvider
	plans    *query.PlanCache
	logFunc  func(format string, args ...any)
}

type Option func(o *options)

type options struct {
	plans   *query.PlanCache
	logFunc func(format string, args ...any)
}

func WithPlanCache(c *query.PlanCache) Option {
	return func(o *options) {
		o.plans = c
	}
}

func WithLogFunc(fn func(format string, args ...any)) Option {
	return func(o *options) {
		o.logFunc = fn
	}
}

func New[T any](provider scope.FactoryProvider, opts ...Option) *Repository[T] {
	o := options{logFunc: log.Printf}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		provider: provider,
		plans:    o.plans,
		logFunc:  o.logFunc,
	}
}

// ReadAll 校验请求体之后编译并执行，配置了读库就走读库
func (r *Repository[T]) ReadAll(ctx context.Context, body map[string]any) (*query.Result[T], error) {
	req, err := query.NewRequest(body)
	if err != nil {
		return nil, err
	}
	return r.Query(ctx, req)
}

func (r *Repository[T]) Query(ctx context.Context, req *query.Request) (*query.Result[T], error) {
	var res *query.Result[T]
	err := r.withSession(ctx, r.readOp(), func(ctx context.Context, sess *scope.Session) error {
		tx, err := scope.BindFor[T](ctx, sess)
		if err != nil {
			return err
		}
		popts := []query.Option{query.WithLogFunc(r.logFunc)}
		if r.plans != nil {
			popts = append(popts, query.WithPlanCache(r.plans))
		}
		res, err = query.NewProcessor[T](tx, req, popts...).Process(ctx)
		return err
	})
	return res, err
}

// ReadOne 按主键 id 查询，找不到返回 orm.ErrNoRows
func (r *Repository[T]) ReadOne(ctx context.Context, id any) (*T, error) {
	var res *T
	err := r.withSession(ctx, r.readOp(), func(ctx context.Context, sess *scope.Session) error {
		tx, err := scope.BindFor[T](ctx, sess)
		if err != nil {
			return err
		}
		res, err = orm.NewSelector[T](tx).Where(orm.C("id").Eq(id)).Get(ctx)
		return err
	})
	return res, err
}

// Create 在写会话里插入，出错整体回滚
func (r *Repository[T]) Create(ctx context.Context, vals ...*T) (int64, error) {
	var affected int64
	err := r.withSession(ctx, scope.OpWrite, func(ctx context.Context, sess *scope.Session) error {
		tx, err := scope.BindFor[T](ctx, sess)
		if err != nil {
			return err
		}
		affected, err = orm.NewInserter[T](tx).Values(vals...).Exec(ctx).RowsAffected()
		return err
	})
	return affected, err
}

func (r *Repository[T]) readOp() scope.OperationType {
	if _, err := r.provider.Factory(scope.OpRead); err == nil {
		return scope.OpRead
	} else if !errors.Is(err, scope.ErrNoSessionFactory) {
		r.logFunc("repo: read factory unavailable: %v", err)
	}
	return scope.OpWrite
}

func (r *Repository[T]) withSession(ctx context.Context, op scope.OperationType,
	fn func(ctx context.Context, sess *scope.Session) error) error {
	if sc, ok := scope.FromContext(ctx); ok {
		return sc.WithSession(ctx, op, fn)
	}
	return scope.New(r.provider, scope.ScopeWithLogFunc(r.logFunc)).WithSession(ctx, op, fn)
}
