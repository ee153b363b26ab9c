package orm

// Column 此种形态链式调用
type Column struct {
	name  string
	alias string
}

func C(name string) Column {
	return Column{
		name: name,
	}
}

// As 此种是不可变设计(不使用指针，Column是不可变对象)可稍稍减少内存逃逸的概率
func (c Column) As(alias string) Column {
	return Column{
		name:  c.name,
		alias: alias,
	}
}

func ValueOf(arg any) Expression {
	switch val := arg.(type) {
	case Expression:
		return val
	default:
		return value{val: val}
	}
}

func (c Column) predicate(o op, arg any) Predicate {
	return Predicate{
		left:  c,
		op:    o,
		right: ValueOf(arg),
	}
}

// Eq C("id").Eq(12)
func (c Column) Eq(arg any) Predicate {
	return c.predicate(opEq, arg)
}

func (c Column) NotEq(arg any) Predicate {
	return c.predicate(opNEq, arg)
}

func (c Column) Lt(arg any) Predicate {
	return c.predicate(opLT, arg)
}

func (c Column) LtEq(arg any) Predicate {
	return c.predicate(opLTE, arg)
}

func (c Column) Gt(arg any) Predicate {
	return c.predicate(opGT, arg)
}

func (c Column) GtEq(arg any) Predicate {
	return c.predicate(opGTE, arg)
}

// Like 不会自动加通配符，pattern 由调用方决定
func (c Column) Like(pattern string) Predicate {
	return c.predicate(opLike, pattern)
}

// In 的参数为空时生成恒假的 IN ()，调用方应自行跳过
func (c Column) In(vals ...any) Predicate {
	return Predicate{
		left:  c,
		op:    opIn,
		right: values{vals: vals},
	}
}

// 标记Column是一个表达式
func (c Column) expr() {}

// 标记Column是可选列
func (c Column) selectable() {}
