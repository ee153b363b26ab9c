package orm

import (
	"context"
)

// RawQuerier 原生查询，结果仍然按 T 的元数据映射
type RawQuerier[T any] struct {
	core
	sess Session
	sql  string
	args []any
}

func RawQuery[T any](sess Session, query string, args ...any) *RawQuerier[T] {
	return &RawQuerier[T]{
		core: sess.getCore(),
		sess: sess,
		sql:  query,
		args: args,
	}
}

func (r *RawQuerier[T]) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.args,
	}, nil
}

func (r *RawQuerier[T]) queryContext() (*QueryContext, error) {
	m, err := r.r.Get(new(T))
	if err != nil {
		return nil, err
	}
	return &QueryContext{
		Type:    "RAW",
		Builder: r,
		Model:   m,
	}, nil
}

// Exec 不需要元数据，DDL 之类的语句可以用 RawQuery[any]
func (r *RawQuerier[T]) Exec(ctx context.Context) Result {
	res := handle(ctx, r.core, &QueryContext{
		Type:    "RAW",
		Builder: r,
	}, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, r.sess, qc)
	})
	if rs, ok := res.Result.(Result); ok {
		return rs
	}
	return Result{err: res.Err}
}

func (r *RawQuerier[T]) Get(ctx context.Context) (*T, error) {
	qc, err := r.queryContext()
	if err != nil {
		return nil, err
	}
	res := handle(ctx, r.core, qc, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getHandler[T](ctx, r.sess, r.core, qc)
	})
	if res.Result != nil {
		return res.Result.(*T), res.Err
	}
	return nil, res.Err
}

func (r *RawQuerier[T]) GetMulti(ctx context.Context) ([]*T, error) {
	qc, err := r.queryContext()
	if err != nil {
		return nil, err
	}
	res := handle(ctx, r.core, qc, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, r.sess, r.core, qc)
	})
	if res.Result != nil {
		return res.Result.([]*T), res.Err
	}
	return nil, res.Err
}
