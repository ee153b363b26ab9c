package orm

// 衍生类型，由string衍生过来
type op string

const (
	opEq   op = "="
	opNEq  op = "!="
	opLT   op = "<"
	opLTE  op = "<="
	opGT   op = ">"
	opGTE  op = ">="
	opLike op = "LIKE"
	opIn   op = "IN"
	opNot  op = "NOT"
	opAnd  op = "AND"
	opOr   op = "OR"
)

func (o op) String() string {
	return string(o)
}

type Predicate struct {
	left  Expression
	op    op
	right Expression
}

// Not(C("name").Eq("Tom"))
func Not(p Predicate) Predicate {
	return Predicate{
		op:    opNot,
		right: p,
	}
}

// C("id").Eq(12).And(C("name").Eq("Tom"))
func (left Predicate) And(right Predicate) Predicate {
	return Predicate{
		left:  left,
		op:    opAnd,
		right: right,
	}
}

// C("id").Eq(12).Or(C("name").Eq("Tom"))
func (left Predicate) Or(right Predicate) Predicate {
	return Predicate{
		left:  left,
		op:    opOr,
		right: right,
	}
}

// And 把多个谓词用 AND 连起来，一个都没有的时候返回 True()
func And(ps ...Predicate) Predicate {
	return fold(ps, Predicate.And)
}

// Or 把多个谓词用 OR 连起来，一个都没有的时候返回 True()
func Or(ps ...Predicate) Predicate {
	return fold(ps, Predicate.Or)
}

func fold(ps []Predicate, combine func(left, right Predicate) Predicate) Predicate {
	if len(ps) == 0 {
		return True()
	}
	p := ps[0]
	for i := 1; i < len(ps); i++ {
		p = combine(p, ps[i])
	}
	return p
}

// 让Predicate实现expression,标记Predicate是一个表达式
func (Predicate) expr() {}
