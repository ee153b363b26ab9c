package opentelemetry

import (
	"context"
	"errors"
	"lightorm/orm"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMiddlewareBuilder_Build(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	builder := MiddlewareBuilder{Tracer: tp.Tracer(instrumentationName)}

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := orm.OpenDB(mockDB, orm.DBWithMiddleware(builder.Build()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .*").WillReturnError(errors.New("query error"))
	_, err = orm.NewSelector[TestModel](db).Where(orm.C("Id").Eq(1)).Get(context.Background())
	assert.EqualError(t, err, "query error")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "SELECT-test_model", span.Name())
	assert.Contains(t, span.Attributes(), attribute.String("sql", "SELECT * FROM `test_model` WHERE `id` = ?;"))
	assert.Contains(t, span.Attributes(), attribute.String("table", "test_model"))
	assert.Equal(t, codes.Error, span.Status().Code)
}

type TestModel struct {
	Id int64
}
