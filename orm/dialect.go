package orm

var (
	DialectMySQL  Dialect = mysqlDialect{}
	DialectSQLite Dialect = sqliteDialect{}
)

type Dialect interface {
	// quoter 为了解决引号问题
	// MySQL `
	quoter() byte
	// Name 和 database/sql 的驱动名保持一致
	Name() string
}

type mysqlDialect struct{}

func (mysqlDialect) quoter() byte {
	return '`'
}

func (mysqlDialect) Name() string {
	return "mysql"
}

// sqliteDialect 同样接受反引号
type sqliteDialect struct{}

func (sqliteDialect) quoter() byte {
	return '`'
}

func (sqliteDialect) Name() string {
	return "sqlite3"
}
