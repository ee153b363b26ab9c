package valuer

import (
	"database/sql"
	"lightorm/orm/internal/errs"
	"lightorm/orm/model"
	"reflect"
	"unsafe"
)

type unsafeValue struct {
	model *model.Model
	// 基准地址
	address unsafe.Pointer
}

var _ Creator = NewUnsafeValue

func NewUnsafeValue(model *model.Model, val any) Value {
	return unsafeValue{
		model:   model,
		address: reflect.ValueOf(val).UnsafePointer(),
	}
}

func (u unsafeValue) Field(name string) (any, error) {
	fd, ok := u.model.FieldMap[name]
	if !ok {
		return nil, errs.NewUnknownField(name)
	}
	fdAddress := unsafe.Add(u.address, fd.Offset)
	val := reflect.NewAt(fd.Type, fdAddress)
	return val.Elem().Interface(), nil
}

func (u unsafeValue) SetColumns(rows *sql.Rows) error {
	cs, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]any, 0, len(cs))
	for _, c := range cs {
		fd, ok := u.model.ColumnMap[c]
		if !ok {
			return errs.NewUnknownColumn(c)
		}
		// 直接把字段地址交给 Scan
		fdAddress := unsafe.Add(u.address, fd.Offset)
		vals = append(vals, reflect.NewAt(fd.Type, fdAddress).Interface())
	}
	return rows.Scan(vals...)
}
