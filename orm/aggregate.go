package orm

// Aggregate 代表聚合函数，一个函数名加一个列名，例如 COUNT(`id`)
type Aggregate struct {
	fn    string
	arg   string
	alias string
}

func (a Aggregate) selectable() {}

// As 结果集里的列名，不设置就是数据库默认的写法
func (a Aggregate) As(alias string) Aggregate {
	a.alias = alias
	return a
}

func Avg(col string) Aggregate { return Aggregate{fn: "AVG", arg: col} }

func Sum(col string) Aggregate { return Aggregate{fn: "SUM", arg: col} }

func Count(col string) Aggregate { return Aggregate{fn: "COUNT", arg: col} }

func Max(col string) Aggregate { return Aggregate{fn: "MAX", arg: col} }

func Min(col string) Aggregate { return Aggregate{fn: "MIN", arg: col} }
