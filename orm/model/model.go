package model

import (
	"lightorm/orm/internal/errs"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

const (
	tagKeyColumn = "column"
)

// Base 标识实体所属的 schema 命名空间，topology 用它把实体路由到对应的 engine
type Base string

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...ModelOpt) (*Model, error)
}

type Model struct {
	TableName string
	// Base 为空代表实体没有声明命名空间
	Base Base
	// Fields 保持结构体字段声明的顺序
	Fields []*Field
	// 字段名到字段的映射
	FieldMap map[string]*Field
	// 列名到字段定义的映射
	ColumnMap map[string]*Field
}

// Lookup 先按列名找，找不到再按 Go 字段名找
func (m *Model) Lookup(name string) (*Field, bool) {
	if fd, ok := m.ColumnMap[name]; ok {
		return fd, true
	}
	fd, ok := m.FieldMap[name]
	return fd, ok
}

// option变种
type ModelOpt func(m *Model) error

type Field struct {
	ColName string

	Type reflect.Type
	// 字段名
	GoName string

	// 字段相对于结构体本身的偏移量
	Offset uintptr
}

type registry struct {
	models sync.Map
}

func NewRegistry() Registry {
	return &registry{}
}

func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	m, ok := r.models.Load(typ)
	if ok {
		return m.(*Model), nil
	}
	return r.Register(val)
}

// Register 限制只能用一级指针
func (r *registry) Register(entity any, opts ...ModelOpt) (*Model, error) {
	typ := reflect.TypeOf(entity)
	if typ == nil || typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointOnly
	}
	elemTyp := typ.Elem()
	numField := elemTyp.NumField()
	fieldMap := make(map[string]*Field, numField)
	columnMap := make(map[string]*Field, numField)
	fields := make([]*Field, 0, numField)
	for i := 0; i < numField; i++ {
		fd := elemTyp.Field(i)
		if !fd.IsExported() {
			continue
		}
		pair, err := r.parseTag(fd.Tag)
		if err != nil {
			return nil, err
		}
		colName := pair[tagKeyColumn]
		if colName == "" {
			colName = underscoreName(fd.Name)
		}
		fdMeta := &Field{
			ColName: colName,
			Type:    fd.Type,
			GoName:  fd.Name,
			Offset:  fd.Offset,
		}
		fieldMap[fd.Name] = fdMeta
		columnMap[colName] = fdMeta
		fields = append(fields, fdMeta)
	}
	var tableName string
	if tbl, ok := entity.(TableName); ok {
		tableName = tbl.TableName()
	}
	if tableName == "" {
		tableName = underscoreName(elemTyp.Name())
	}
	var base Base
	if b, ok := entity.(Bound); ok {
		base = b.ModelBase()
	}

	res := &Model{
		TableName: tableName,
		Base:      base,
		FieldMap:  fieldMap,
		ColumnMap: columnMap,
		Fields:    fields,
	}
	for _, opt := range opts {
		if err := opt(res); err != nil {
			return nil, err
		}
	}
	r.models.Store(typ, res)
	return res, nil
}

func WithColumnName(field string, columnName string) ModelOpt {
	return func(m *Model) error {
		fd, ok := m.FieldMap[field]
		if !ok {
			return errs.NewUnknownField(field)
		}
		delete(m.ColumnMap, fd.ColName)
		fd.ColName = columnName
		m.ColumnMap[columnName] = fd
		return nil
	}
}

func WithTableName(tableName string) ModelOpt {
	return func(m *Model) error {
		m.TableName = tableName
		return nil
	}
}

func WithBase(base Base) ModelOpt {
	return func(m *Model) error {
		m.Base = base
		return nil
	}
}

//	type User struct {
//		ID uint64 `orm:"column=id,xxx=bbb"`
//	}
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag, ok := tag.Lookup("orm")
	if !ok {
		return map[string]string{}, nil
	}
	pairs := strings.Split(ormTag, ",")
	res := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		segs := strings.Split(pair, "=")
		if len(segs) != 2 {
			return nil, errs.NewErrInvalidTagContext(pair)
		}
		res[segs[0]] = segs[1]
	}
	return res, nil
}

func underscoreName(name string) string {
	var buf []byte
	for i, v := range name {
		if unicode.IsUpper(v) {
			if i != 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, byte(unicode.ToLower(v)))
		} else {
			buf = append(buf, byte(v))
		}
	}
	return string(buf)
}

type TableName interface {
	TableName() string
}

// Bound 由实体实现，声明自己属于哪个命名空间
type Bound interface {
	ModelBase() Base
}
