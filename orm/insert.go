package orm

import (
	"context"
	"lightorm/orm/internal/errs"
	"lightorm/orm/model"
)

type Inserter[T any] struct {
	builder

	sess    Session
	values  []*T
	columns []string
}

func NewInserter[T any](sess Session) *Inserter[T] {
	c := sess.getCore()
	return &Inserter[T]{
		builder: builder{
			core:   c,
			quoter: c.dialect.quoter(),
		},
		sess: sess,
	}
}

// Columns 指定插入的列，不指定就插入全部字段
func (i *Inserter[T]) Columns(cols ...string) *Inserter[T] {
	i.columns = cols
	return i
}

// Values 指定插入的数据
func (i *Inserter[T]) Values(vals ...*T) *Inserter[T] {
	i.values = vals
	return i
}

func (i *Inserter[T]) Build() (*Query, error) {
	if len(i.values) == 0 {
		return nil, errs.ErrInsertZeroRow
	}
	if err := i.initModel(); err != nil {
		return nil, err
	}
	i.sb.Reset()
	i.args = nil

	i.sb.WriteString("INSERT INTO ")
	i.quote(i.model.TableName)
	// 一定要显式的指定列的顺序，不然我们不知道数据库中默认的数据顺序
	i.sb.WriteByte('(')
	fields := i.model.Fields
	if len(i.columns) > 0 {
		fields = make([]*model.Field, 0, len(i.columns))
		for _, c := range i.columns {
			fd, ok := i.model.Lookup(c)
			if !ok {
				return nil, errs.NewUnknownColumn(c)
			}
			fields = append(fields, fd)
		}
	}
	// 不能遍历 FieldMap 和 ColumnMap，map 的遍历顺序每一次都不一样
	for idx, fd := range fields {
		if idx > 0 {
			i.sb.WriteByte(',')
		}
		i.quote(fd.ColName)
	}
	i.sb.WriteString(") VALUES ")

	// 预估的参数数量是行数乘字段数
	i.args = make([]any, 0, len(i.values)*len(fields))
	for j, v := range i.values {
		if j > 0 {
			i.sb.WriteByte(',')
		}
		i.sb.WriteByte('(')
		val := i.creator(i.model, v)
		for idx, fd := range fields {
			if idx > 0 {
				i.sb.WriteByte(',')
			}
			i.sb.WriteByte('?')
			arg, err := val.Field(fd.GoName)
			if err != nil {
				return nil, err
			}
			i.addArgs(arg)
		}
		i.sb.WriteByte(')')
	}
	i.sb.WriteByte(';')
	return &Query{
		SQL:  i.sb.String(),
		Args: i.args,
	}, nil
}

func (i *Inserter[T]) initModel() error {
	if i.model != nil {
		return nil
	}
	m, err := i.r.Get(new(T))
	if err != nil {
		return err
	}
	i.model = m
	return nil
}

func (i *Inserter[T]) Exec(ctx context.Context) Result {
	if err := i.initModel(); err != nil {
		return Result{err: err}
	}
	res := handle(ctx, i.core, &QueryContext{
		Type:    "INSERT",
		Builder: i,
		Model:   i.model,
	}, func(ctx context.Context, qc *QueryContext) *QueryResult {
		return execHandler(ctx, i.sess, qc)
	})
	if r, ok := res.Result.(Result); ok {
		return r
	}
	return Result{err: res.Err}
}
