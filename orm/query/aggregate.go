package query

import (
	"lightorm/orm"
	"regexp"
	"strings"
)

// AggregateFunc 支持的聚合函数是封闭的集合
type AggregateFunc uint8

const (
	AggregateCount AggregateFunc = iota + 1
	AggregateSum
	AggregateAvg
	AggregateMin
	AggregateMax
)

func ParseAggregateFunc(name string) (AggregateFunc, bool) {
	switch strings.ToLower(name) {
	case "count":
		return AggregateCount, true
	case "sum":
		return AggregateSum, true
	case "avg":
		return AggregateAvg, true
	case "min":
		return AggregateMin, true
	case "max":
		return AggregateMax, true
	}
	return 0, false
}

func (f AggregateFunc) String() string {
	switch f {
	case AggregateCount:
		return "count"
	case AggregateSum:
		return "sum"
	case AggregateAvg:
		return "avg"
	case AggregateMin:
		return "min"
	case AggregateMax:
		return "max"
	}
	return "unknown"
}

// Apply 生成作用在 col 上的聚合表达式
func (f AggregateFunc) Apply(col string) orm.Aggregate {
	switch f {
	case AggregateSum:
		return orm.Sum(col)
	case AggregateAvg:
		return orm.Avg(col)
	case AggregateMin:
		return orm.Min(col)
	case AggregateMax:
		return orm.Max(col)
	default:
		return orm.Count(col)
	}
}

var aggregatePattern = regexp.MustCompile(`^\s*(\w+)\s*\(\s*(\w+)\s*\)\s*$`)

// splitAggregate 只做文本上的拆分，fn 和 col 是否合法由调用方判断
func splitAggregate(expr string) (fn string, col string, ok bool) {
	m := aggregatePattern.FindStringSubmatch(expr)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// isAggregate func(col) 的形式并且 func 是已知的聚合函数
func isAggregate(expr string) bool {
	fn, _, ok := splitAggregate(expr)
	if !ok {
		return false
	}
	_, ok = ParseAggregateFunc(fn)
	return ok
}
