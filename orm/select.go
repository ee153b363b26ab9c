package orm

import (
	"context"
	"lightorm/orm/internal/errs"
	"lightorm/orm/model"
)

type Selectable interface {
	selectable()
}

type Selector[T any] struct {
	builder

	where   []Predicate
	columns []Selectable
	groupBy []Column
	orderBy []OrderBy
	limit   int
	offset  int

	sess Session
}

func NewSelector[T any](sess Session) *Selector[T] {
	c := sess.getCore()
	return &Selector[T]{
		builder: builder{
			core:   c,
			quoter: c.dialect.quoter(),
		},
		sess: sess,
	}
}

// Build 可以被中间件重复调用，每次都从头构造
func (s *Selector[T]) Build() (*Query, error) {
	if err := s.initModel(); err != nil {
		return nil, err
	}
	s.sb.Reset()
	s.args = nil

	s.sb.WriteString("SELECT ")
	if err := s.buildColumns(); err != nil {
		return nil, err
	}
	s.sb.WriteString(" FROM ")
	s.quote(s.model.TableName)

	if len(s.where) > 0 {
		s.sb.WriteString(" WHERE ")
		if err := s.buildExpression(And(s.where...)); err != nil {
			return nil, err
		}
	}
	if len(s.groupBy) > 0 {
		s.sb.WriteString(" GROUP BY ")
		for i, c := range s.groupBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			c.alias = ""
			if err := s.buildColumn(c); err != nil {
				return nil, err
			}
		}
	}
	if len(s.orderBy) > 0 {
		s.sb.WriteString(" ORDER BY ")
		for i, ob := range s.orderBy {
			if i > 0 {
				s.sb.WriteByte(',')
			}
			if err := s.buildColumn(Column{name: ob.col}); err != nil {
				return nil, err
			}
			s.sb.WriteByte(' ')
			s.sb.WriteString(ob.order)
		}
	}
	if s.limit > 0 {
		s.sb.WriteString(" LIMIT ?")
		s.addArgs(s.limit)
	}
	if s.offset > 0 {
		s.sb.WriteString(" OFFSET ?")
		s.addArgs(s.offset)
	}
	s.sb.WriteByte(';')
	return &Query{
		SQL:  s.sb.String(),
		Args: s.args,
	}, nil
}

func (s *Selector[T]) initModel() error {
	if s.model != nil {
		return nil
	}
	m, err := s.r.Get(new(T))
	if err != nil {
		return err
	}
	s.model = m
	return nil
}

// Model 返回 T 对应的元数据，构造查询之前就能拿来解析字段
func (s *Selector[T]) Model() (*model.Model, error) {
	if err := s.initModel(); err != nil {
		return nil, err
	}
	return s.model, nil
}

func (s *Selector[T]) buildColumns() error {
	if len(s.columns) == 0 {
		// 没有指定列
		s.sb.WriteByte('*')
		return nil
	}
	for i, col := range s.columns {
		if i > 0 {
			s.sb.WriteByte(',')
		}
		switch c := col.(type) {
		case Column:
			if err := s.buildColumn(c); err != nil {
				return err
			}
		case Aggregate:
			// 聚合函数名
			s.sb.WriteString(c.fn)
			s.sb.WriteByte('(')
			if err := s.buildColumn(Column{name: c.arg}); err != nil {
				return err
			}
			s.sb.WriteByte(')')
			// 聚合函数本身的别名
			if c.alias != "" {
				s.sb.WriteString(" AS ")
				s.quote(c.alias)
			}
		case RawExpr:
			s.sb.WriteString(c.raw)
			s.addArgs(c.args...)
		default:
			return errs.NewErrUnsupportedSelectable(c)
		}
	}
	return nil
}

// Where 多个谓词之间用 AND 连接
func (s *Selector[T]) Where(ps ...Predicate) *Selector[T] {
	s.where = ps
	return s
}

func (s *Selector[T]) Select(cols ...Selectable) *Selector[T] {
	s.columns = cols
	return s
}

func (s *Selector[T]) GroupBy(cols ...Column) *Selector[T] {
	s.groupBy = cols
	return s
}

// OrderBy 追加排序子句，先追加的优先级更高
func (s *Selector[T]) OrderBy(obs ...OrderBy) *Selector[T] {
	s.orderBy = append(s.orderBy, obs...)
	return s
}

func (s *Selector[T]) Limit(limit int) *Selector[T] {
	s.limit = limit
	return s
}

func (s *Selector[T]) Offset(offset int) *Selector[T] {
	s.offset = offset
	return s
}

func (s *Selector[T]) queryContext() (*QueryContext, error) {
	if err := s.initModel(); err != nil {
		return nil, err
	}
	return &QueryContext{
		Type:    "SELECT",
		Builder: s,
		Model:   s.model,
	}, nil
}

// Get 只取第一行，没有数据返回 ErrNoRows
func (s *Selector[T]) Get(ctx context.Context) (*T, error) {
	qc, err := s.queryContext()
	if err != nil {
		return nil, err
	}
	res := handle(ctx, s.core, qc, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getHandler[T](ctx, s.sess, s.core, qc)
	})
	if res.Result != nil {
		return res.Result.(*T), res.Err
	}
	return nil, res.Err
}

// GetMulti 把所有行映射成 T，结果集的列必须都能映射到 T 的字段上
func (s *Selector[T]) GetMulti(ctx context.Context) ([]*T, error) {
	qc, err := s.queryContext()
	if err != nil {
		return nil, err
	}
	res := handle(ctx, s.core, qc, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getMultiHandler[T](ctx, s.sess, s.core, qc)
	})
	if res.Result != nil {
		return res.Result.([]*T), res.Err
	}
	return nil, res.Err
}

// GetValues 按 SELECT 列的顺序返回每一行的值，用于投影和聚合查询
func (s *Selector[T]) GetValues(ctx context.Context) ([][]any, error) {
	qc, err := s.queryContext()
	if err != nil {
		return nil, err
	}
	res := handle(ctx, s.core, qc, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return getValuesHandler(ctx, s.sess, qc)
	})
	if res.Result != nil {
		return res.Result.([][]any), res.Err
	}
	return nil, res.Err
}
