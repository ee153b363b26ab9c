package slowquery

import (
	"context"
	"lightorm/orm"
	"log"
	"time"
)

// Entry 是一条超过阈值的语句
type Entry struct {
	Type     string
	Table    string
	SQL      string
	Args     []any
	Duration time.Duration
}

type MiddlewareBuilder struct {
	// 慢查询阈值
	threshold time.Duration
	logFunc   func(e Entry)
}

func NewMiddlewareBuilder(threshold time.Duration) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(e Entry) {
			log.Printf("orm: slow %s on %s sql: %s, args: %v, duration: %s\n",
				e.Type, e.Table, e.SQL, e.Args, e.Duration)
		},
		threshold: threshold,
	}
}

func (m *MiddlewareBuilder) LogFunc(fn func(e Entry)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				if duration < m.threshold {
					return
				}
				q, err := qc.Builder.Build()
				if err == nil {
					m.logFunc(Entry{
						Type:     qc.Type,
						Table:    qc.TableName(),
						SQL:      q.SQL,
						Args:     q.Args,
						Duration: duration,
					})
				}
			}()
			return next(ctx, qc)
		}
	}
}
