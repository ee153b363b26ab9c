package valuer

import (
	"database/sql"
	"lightorm/orm/model"
)

// Value 是对实体实例的抽象，用来读取字段和把结果集写回实体
type Value interface {
	// Field 按 Go 字段名读取
	Field(name string) (any, error)
	// SetColumns 把当前行写入实体，rows 必须已经调用过 Next
	SetColumns(rows *sql.Rows) error
}

type Creator func(model *model.Model, entity any) Value
