package orm

import (
	"lightorm/orm/internal/errs"
	"strings"
)

type Query struct {
	SQL  string
	Args []any
}

// QueryBuilder 由 Selector 和 Inserter 实现
type QueryBuilder interface {
	Build() (*Query, error)
}

type builder struct {
	sb   strings.Builder
	args []any
	core
	quoter byte
}

func (b *builder) quote(name string) {
	b.sb.WriteByte(b.quoter)
	b.sb.WriteString(name)
	b.sb.WriteByte(b.quoter)
}

// buildColumn 列名和字段名都可以，统一落到真实列名上
func (b *builder) buildColumn(c Column) error {
	fd, ok := b.model.Lookup(c.name)
	if !ok {
		return errs.NewUnknownField(c.name)
	}
	b.quote(fd.ColName)
	if c.alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(c.alias)
	}
	return nil
}

func (b *builder) buildExpression(expr Expression) error {
	switch exp := expr.(type) {
	case nil:
	case Predicate:
		_, ok := exp.left.(Predicate)
		if ok {
			b.sb.WriteByte('(')
		}
		if err := b.buildExpression(exp.left); err != nil {
			return err
		}
		if ok {
			b.sb.WriteByte(')')
		}
		if exp.op != "" {
			if exp.left != nil {
				b.sb.WriteByte(' ')
			}
			b.sb.WriteString(exp.op.String())
			b.sb.WriteByte(' ')
		}
		_, ok = exp.right.(Predicate)
		if ok {
			b.sb.WriteByte('(')
		}
		if err := b.buildExpression(exp.right); err != nil {
			return err
		}
		if ok {
			b.sb.WriteByte(')')
		}
	case Column:
		// 谓词里的列不需要别名
		exp.alias = ""
		return b.buildColumn(exp)
	case RawExpr:
		b.sb.WriteByte('(')
		b.sb.WriteString(exp.raw)
		b.addArgs(exp.args...)
		b.sb.WriteByte(')')
	case value:
		b.sb.WriteByte('?')
		b.addArgs(exp.val)
	case values:
		b.sb.WriteByte('(')
		for i, v := range exp.vals {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			b.sb.WriteByte('?')
			b.addArgs(v)
		}
		b.sb.WriteByte(')')
	default:
		return errs.NewUnsupportedExpression(exp)
	}
	return nil
}

func (b *builder) addArgs(vals ...any) {
	if len(vals) == 0 {
		return
	}
	if b.args == nil {
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, vals...)
}
