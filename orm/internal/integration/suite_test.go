package integration

import (
	"context"
	"database/sql"
	"lightorm/orm"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type Suite struct {
	suite.Suite
	driver string
	dsn    string
	ddl    string
	db     *orm.DB
}

// SetupSuite 所有suite执行前的钩子
func (s *Suite) SetupSuite() {
	db, err := orm.Open(s.driver, s.dsn, orm.DBWithDialect(orm.DialectSQLite))
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.Ping(context.Background()))
	err = orm.RawQuery[any](db, s.ddl).Exec(context.Background()).Err()
	require.NoError(s.T(), err)
	s.db = db
}

func (s *Suite) TearDownSuite() {
	_ = s.db.Close()
}

type SimpleStruct struct {
	Id       int64
	Name     string
	Age      int8
	Nickname *sql.NullString
}

func NewSimpleStruct(id int64) *SimpleStruct {
	return &SimpleStruct{
		Id:       id,
		Name:     "Tom",
		Age:      18,
		Nickname: &sql.NullString{String: "Jerry", Valid: true},
	}
}

const simpleStructDDL = "CREATE TABLE IF NOT EXISTS `simple_struct`(" +
	"`id` INTEGER PRIMARY KEY," +
	"`name` TEXT NOT NULL," +
	"`age` INTEGER NOT NULL," +
	"`nickname` TEXT" +
	");"
