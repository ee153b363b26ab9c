package orm

import (
	"context"
	"database/sql"
	"lightorm/orm/internal/valuer"
	"lightorm/orm/model"
)

type core struct {
	model   *model.Model
	dialect Dialect
	creator valuer.Creator
	r       model.Registry
	mdls    []Middleware
}

// handle 把中间件从后往前套在 root 外面
func handle(ctx context.Context, c core, qc *QueryContext, root Handler) *QueryResult {
	for i := len(c.mdls) - 1; i >= 0; i-- {
		root = c.mdls[i](root)
	}
	return root(ctx, qc)
}

func getHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	// 这是查询错误，数据库返回的
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer rows.Close()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return &QueryResult{Err: err}
		}
		// 和sql包语义保持一致 sql.ErrNoRows
		return &QueryResult{Err: ErrNoRows}
	}
	tp := new(T)
	err = c.creator(qc.Model, tp).SetColumns(rows)
	return &QueryResult{
		Err:    err,
		Result: tp,
	}
}

func getMultiHandler[T any](ctx context.Context, sess Session, c core, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer rows.Close()
	res := make([]*T, 0, 16)
	for rows.Next() {
		tp := new(T)
		if err = c.creator(qc.Model, tp).SetColumns(rows); err != nil {
			return &QueryResult{Err: err}
		}
		res = append(res, tp)
	}
	return &QueryResult{
		Err:    rows.Err(),
		Result: res,
	}
}

func getValuesHandler(ctx context.Context, sess Session, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{Err: err}
	}
	rows, err := sess.queryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &QueryResult{Err: err}
	}
	defer rows.Close()
	cs, err := rows.Columns()
	if err != nil {
		return &QueryResult{Err: err}
	}
	res := make([][]any, 0, 16)
	for rows.Next() {
		vals := make([]any, len(cs))
		ptrs := make([]any, len(cs))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return &QueryResult{Err: err}
		}
		for i, v := range vals {
			// MySQL 驱动把文本列当成 []byte 返回
			if bs, ok := v.([]byte); ok {
				vals[i] = string(bs)
			}
		}
		res = append(res, vals)
	}
	return &QueryResult{
		Err:    rows.Err(),
		Result: res,
	}
}

func execHandler(ctx context.Context, sess Session, qc *QueryContext) *QueryResult {
	q, err := qc.Builder.Build()
	if err != nil {
		return &QueryResult{
			Err:    err,
			Result: Result{err: err},
		}
	}
	res, err := sess.execContext(ctx, q.SQL, q.Args...)
	return &QueryResult{
		Err: err,
		Result: Result{
			res: res,
			err: err,
		},
	}
}

var _ sql.Result = Result{}

// Result 是对 sql.Result 的封装，把错误也带上
type Result struct {
	err error
	res sql.Result
}

func (r Result) Err() error {
	return r.err
}

func (r Result) LastInsertId() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.res.LastInsertId()
}

func (r Result) RowsAffected() (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.res.RowsAffected()
}
