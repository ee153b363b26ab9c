package valuer

import (
	"database/sql"
	"lightorm/orm/internal/errs"
	"lightorm/orm/model"
	"reflect"
)

type reflectValue struct {
	model *model.Model
	// 对应于T的指针解引用之后的值
	val reflect.Value
}

var _ Creator = NewReflectValue

func NewReflectValue(model *model.Model, val any) Value {
	return reflectValue{
		model: model,
		val:   reflect.ValueOf(val).Elem(),
	}
}

func (r reflectValue) Field(name string) (any, error) {
	if _, ok := r.model.FieldMap[name]; !ok {
		return nil, errs.NewUnknownField(name)
	}
	return r.val.FieldByName(name).Interface(), nil
}

func (r reflectValue) SetColumns(rows *sql.Rows) error {
	cs, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]any, 0, len(cs))
	valElems := make([]reflect.Value, 0, len(cs))
	fds := make([]*model.Field, 0, len(cs))
	for _, c := range cs {
		fd, ok := r.model.ColumnMap[c]
		if !ok {
			return errs.NewUnknownColumn(c)
		}
		// fd.Type=int 那么 val 是 *int，scan 就不用再取地址
		val := reflect.New(fd.Type)
		vals = append(vals, val.Interface())
		valElems = append(valElems, val.Elem())
		fds = append(fds, fd)
	}
	if err = rows.Scan(vals...); err != nil {
		return err
	}
	for i, fd := range fds {
		r.val.FieldByName(fd.GoName).Set(valElems[i])
	}
	return nil
}
