package query

import (
	"fmt"
)

// ValidationError 请求体结构不合法，构造 Request 的时候就返回，不会访问数据库
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "query: " + e.Msg
}

func newValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// SchemaError 投影或者分组引用了实体上不存在的列或者不支持的聚合函数
type SchemaError struct {
	// Expr 是请求里的原始写法，例如 count(bogus)
	Expr string
	// Name 是无法解析的那一部分
	Name string
	Kind string
}

func (e *SchemaError) Error() string {
	if e.Expr != "" && e.Expr != e.Name {
		return fmt.Sprintf("query: %s: %s is not a valid %s", e.Expr, e.Name, e.Kind)
	}
	return fmt.Sprintf("query: %s is not a valid %s", e.Name, e.Kind)
}

const (
	kindColumn    = "column"
	kindAggregate = "aggregate function"
)
