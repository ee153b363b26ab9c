package orm

// Expression 是一个标记接口(因为expr()没有任何含义)，代表表达式
type Expression interface {
	expr()
}

// RawExpr 代表的是原生表达式
type RawExpr struct {
	raw  string
	args []any
}

func Raw(expr string, args ...any) RawExpr {
	return RawExpr{
		raw:  expr,
		args: args,
	}
}

func (r RawExpr) selectable() {}
func (r RawExpr) expr()       {}

func (r RawExpr) AsPredicate() Predicate {
	return Predicate{
		left: r,
	}
}

// True 是恒真谓词，空的 AND/OR 组合退化成它
func True() Predicate {
	return Raw("1=1").AsPredicate()
}

// False 是恒假谓词，空的 IN 列表渲染成它
func False() Predicate {
	return Raw("1=0").AsPredicate()
}

type value struct {
	val any
}

func (value) expr() {}

// values 用于 IN 的右侧
type values struct {
	vals []any
}

func (values) expr() {}
