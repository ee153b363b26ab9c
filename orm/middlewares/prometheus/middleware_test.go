package prometheus

import (
	"context"
	"lightorm/orm"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareBuilder_Build(t *testing.T) {
	reg := prometheus.NewRegistry()
	builder := MiddlewareBuilder{
		Namespace:  "lightorm",
		Subsystem:  "orm",
		Name:       "query_duration",
		Help:       "query duration in milliseconds",
		Registerer: reg,
	}
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := orm.OpenDB(mockDB, orm.DBWithMiddleware(builder.Build()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	_, err = orm.NewSelector[TestModel](db).Get(context.Background())
	require.NoError(t, err)
	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = orm.NewSelector[TestModel](db).Get(context.Background())
	assert.Equal(t, orm.ErrNoRows, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.Equal(t, "lightorm_orm_query_duration", mfs[0].GetName())
	// ok 和 error 各一条时间序列
	assert.Len(t, mfs[0].GetMetric(), 2)
}

type TestModel struct {
	Id int64
}
