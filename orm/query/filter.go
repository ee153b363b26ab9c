package query

import (
	"encoding/json"
	"fmt"
	"lightorm/orm"
	"lightorm/orm/model"
	"math"
)

type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// Node 是过滤条件树上的一个节点，要么是 and/or 组合，要么是叶子
type Node struct {
	Combinator Combinator
	Children   []*Node
	Leaf       *Leaf
}

// Leaf 只在校验阶段检查形状，op 和 field 到构造谓词的时候才解析
type Leaf struct {
	Field string
	Op    string
	Value any
}

func parseFilters(raw any) (*Node, error) {
	switch f := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(f) == 0 {
			return nil, nil
		}
	case []any:
		if len(f) == 0 {
			return nil, nil
		}
	}
	return parseNode(raw)
}

func parseNode(raw any) (*Node, error) {
	switch f := raw.(type) {
	case map[string]any:
		if !onlyCombinators(f) {
			return parseLeaf(f)
		}
		children := make([]*Node, 0, 2)
		// 同时出现 and 和 or 时两者再用 AND 连接
		for _, c := range []Combinator{CombinatorAnd, CombinatorOr} {
			v, ok := f[string(c)]
			if !ok {
				continue
			}
			list, ok := v.([]any)
			if !ok {
				return nil, newValidationError("filters under '%s' must be a list", c)
			}
			n, err := parseList(c, list)
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return &Node{Combinator: CombinatorAnd, Children: children}, nil
	case []any:
		// 裸列表等价于 and
		return parseList(CombinatorAnd, f)
	default:
		return nil, newValidationError("filters must be a dict or list")
	}
}

func parseList(c Combinator, list []any) (*Node, error) {
	n := &Node{Combinator: c, Children: make([]*Node, 0, len(list))}
	for _, elem := range list {
		child, err := parseNode(elem)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func onlyCombinators(m map[string]any) bool {
	for k := range m {
		if k != string(CombinatorAnd) && k != string(CombinatorOr) {
			return false
		}
	}
	return true
}

func parseLeaf(m map[string]any) (*Node, error) {
	rawField, ok1 := m["field"]
	rawOp, ok2 := m["op"]
	value, ok3 := m["value"]
	if !ok1 || !ok2 || !ok3 {
		return nil, newValidationError("filters must contain only 'and', 'or', or a single filter with 'field', 'op', and 'value'")
	}
	field, ok := rawField.(string)
	if !ok {
		return nil, newValidationError("filter 'field' must be a string")
	}
	op, ok := rawOp.(string)
	if !ok {
		return nil, newValidationError("filter 'op' must be a string")
	}
	return &Node{Leaf: &Leaf{Field: field, Op: op, Value: value}}, nil
}

// Predicate 把过滤树归约成一个谓词。
// 叶子引用了不存在的字段、未知的操作符、空值或者 in 的值不是列表时直接丢弃，不报错。
// 组合节点一定返回 true，子节点全部被丢弃时退化成 orm.True()
func (n *Node) Predicate(m *model.Model) (orm.Predicate, bool) {
	if n == nil {
		return orm.Predicate{}, false
	}
	if n.Leaf != nil {
		return n.Leaf.predicate(m)
	}
	ps := make([]orm.Predicate, 0, len(n.Children))
	for _, c := range n.Children {
		if p, ok := c.Predicate(m); ok {
			ps = append(ps, p)
		}
	}
	if n.Combinator == CombinatorOr {
		return orm.Or(ps...), true
	}
	return orm.And(ps...), true
}

func (l *Leaf) predicate(m *model.Model) (orm.Predicate, bool) {
	if l.Field == "" || l.Op == "" || l.Value == nil {
		return orm.Predicate{}, false
	}
	fd, ok := m.Lookup(l.Field)
	if !ok {
		return orm.Predicate{}, false
	}
	col := orm.C(fd.ColName)
	switch l.Op {
	case "==":
		return col.Eq(normalize(l.Value)), true
	case "!=":
		return col.NotEq(normalize(l.Value)), true
	case "<":
		return col.Lt(normalize(l.Value)), true
	case ">":
		return col.Gt(normalize(l.Value)), true
	case "<=":
		return col.LtEq(normalize(l.Value)), true
	case ">=":
		return col.GtEq(normalize(l.Value)), true
	case "like":
		return col.Like(fmt.Sprintf("%%%v%%", normalize(l.Value))), true
	case "in":
		list, ok := l.Value.([]any)
		if !ok {
			return orm.Predicate{}, false
		}
		if len(list) == 0 {
			return orm.False(), true
		}
		vals := make([]any, 0, len(list))
		for _, v := range list {
			vals = append(vals, normalize(v))
		}
		return col.In(vals...), true
	}
	return orm.Predicate{}, false
}

// normalize 整数值的 float64 和 json.Number 转成 int64，避免驱动按浮点数比较
func normalize(v any) any {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
