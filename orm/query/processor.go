package query

import (
	"context"
	"lightorm/orm"
	"lightorm/orm/model"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// Record 是投影查询的一行，键是请求里 need_fields 的原始写法
type Record map[string]any

// Result 没有 need_fields 时填 Entities，否则填 Records
type Result[T any] struct {
	Entities []*T
	Records  []Record
}

type Option func(o *options)

type options struct {
	plans   *PlanCache
	logFunc func(format string, args ...any)
}

// WithPlanCache 多个 Processor 共享解析好的投影列
func WithPlanCache(c *PlanCache) Option {
	return func(o *options) {
		o.plans = c
	}
}

func WithLogFunc(fn func(format string, args ...any)) Option {
	return func(o *options) {
		o.logFunc = fn
	}
}

// Processor 把一个 Request 编译成针对 T 的查询并执行
type Processor[T any] struct {
	options
	sess orm.Session
	req  *Request
}

func NewProcessor[T any](sess orm.Session, req *Request, opts ...Option) *Processor[T] {
	p := &Processor[T]{
		options: options{
			logFunc: log.Printf,
		},
		sess: sess,
		req:  req,
	}
	for _, opt := range opts {
		opt(&p.options)
	}
	return p
}

// Compile 顺序固定：过滤、排序、分组、分页、投影
func (p *Processor[T]) Compile() (*orm.Selector[T], error) {
	sel := orm.NewSelector[T](p.sess)
	m, err := sel.Model()
	if err != nil {
		return nil, err
	}

	if pred, ok := p.req.Filters().Predicate(m); ok {
		sel.Where(pred)
	}

	for _, sf := range p.req.Sorting() {
		fd, ok := m.Lookup(sf.Field)
		if !ok {
			// 排序字段只接受实体上的列
			p.logFunc("query: ignore unknown sort field %q on %s", sf.Field, m.TableName)
			continue
		}
		if sf.Desc {
			sel.OrderBy(orm.Desc(fd.ColName))
		} else {
			sel.OrderBy(orm.Asc(fd.ColName))
		}
	}

	if groupBy := p.req.GroupBy(); len(groupBy) > 0 {
		cols := make([]orm.Column, 0, len(groupBy))
		for _, g := range groupBy {
			fd, ok := m.Lookup(g)
			if !ok {
				return nil, &SchemaError{Expr: g, Name: g, Kind: kindColumn}
			}
			cols = append(cols, orm.C(fd.ColName))
		}
		sel.GroupBy(cols...)
	}

	pg := p.req.Pagination()
	sel.Limit(pg.Limit()).Offset(pg.Offset())

	if needFields := p.req.NeedFields(); len(needFields) > 0 {
		cols, err := p.projection(m, needFields)
		if err != nil {
			return nil, err
		}
		sel.Select(cols...)
	}
	return sel, nil
}

func (p *Processor[T]) Process(ctx context.Context) (*Result[T], error) {
	sel, err := p.Compile()
	if err != nil {
		return nil, err
	}
	needFields := p.req.NeedFields()
	if len(needFields) == 0 {
		ents, err := sel.GetMulti(ctx)
		if err != nil {
			return nil, err
		}
		return &Result[T]{Entities: ents}, nil
	}
	rows, err := sel.GetValues(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(needFields))
		for i, f := range needFields {
			if i < len(row) {
				rec[f] = row[i]
			}
		}
		records = append(records, rec)
	}
	return &Result[T]{Records: records}, nil
}

func (p *Processor[T]) projection(m *model.Model, needFields []string) ([]orm.Selectable, error) {
	if p.plans != nil {
		if cols, ok := p.plans.get(m, needFields); ok {
			return cols, nil
		}
	}
	cols := make([]orm.Selectable, 0, len(needFields))
	for _, f := range needFields {
		col, err := resolveSelectable(m, f)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if p.plans != nil {
		p.plans.add(m, needFields, cols)
	}
	return cols, nil
}

// resolveSelectable 先检查列再检查聚合函数
func resolveSelectable(m *model.Model, expr string) (orm.Selectable, error) {
	if fn, colName, ok := splitAggregate(expr); ok {
		fd, ok := m.Lookup(colName)
		if !ok {
			return nil, &SchemaError{Expr: expr, Name: colName, Kind: kindColumn}
		}
		agg, ok := ParseAggregateFunc(fn)
		if !ok {
			return nil, &SchemaError{Expr: expr, Name: fn, Kind: kindAggregate}
		}
		return agg.Apply(fd.ColName).As(expr), nil
	}
	fd, ok := m.Lookup(expr)
	if !ok {
		return nil, &SchemaError{Expr: expr, Name: expr, Kind: kindColumn}
	}
	return orm.C(fd.ColName), nil
}

// PlanCache 缓存 need_fields 解析出来的投影列，按实体和字段列表区分
type PlanCache struct {
	cache *lru.Cache
}

func NewPlanCache(size int) (*PlanCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &PlanCache{cache: c}, nil
}

type planKey struct {
	m      *model.Model
	fields string
}

func (c *PlanCache) get(m *model.Model, fields []string) ([]orm.Selectable, bool) {
	v, ok := c.cache.Get(planKey{m: m, fields: strings.Join(fields, "\x00")})
	if !ok {
		return nil, false
	}
	cols := v.([]orm.Selectable)
	return append([]orm.Selectable(nil), cols...), true
}

func (c *PlanCache) add(m *model.Model, fields []string, cols []orm.Selectable) {
	c.cache.Add(planKey{m: m, fields: strings.Join(fields, "\x00")}, append([]orm.Selectable(nil), cols...))
}

func (c *PlanCache) Len() int {
	return c.cache.Len()
}
