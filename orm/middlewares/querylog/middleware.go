package querylog

import (
	"context"
	"lightorm/orm"
	"log"
	"time"
)

// Entry 是执行完的一条语句
type Entry struct {
	// SELECT、INSERT 或者 RAW
	Type string
	// 原生语句没有表名
	Table    string
	SQL      string
	Args     []any
	Duration time.Duration
	Err      error
}

type MiddlewareBuilder struct {
	logFunc func(e Entry)
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(e Entry) {
			log.Printf("orm: %s %s sql: %s, args: %v, duration: %s, err: %v\n",
				e.Type, e.Table, e.SQL, e.Args, e.Duration, e.Err)
		},
	}
}

func (m *MiddlewareBuilder) LogFunc(fn func(e Entry)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

// Build 语句执行完才输出，构造 SQL 失败的不输出
func (m MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			q, err := qc.Builder.Build()
			if err != nil {
				return &orm.QueryResult{
					Err: err,
				}
			}
			start := time.Now()
			res := next(ctx, qc)
			m.logFunc(Entry{
				Type:     qc.Type,
				Table:    qc.TableName(),
				SQL:      q.SQL,
				Args:     q.Args,
				Duration: time.Since(start),
				Err:      res.Err,
			})
			return res
		}
	}
}
