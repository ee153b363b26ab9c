package orm

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawQuerier_Get(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := OpenDB(mockDB)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "first_name", "age"})
	rows.AddRow(1, "Tom", 18)
	mock.ExpectQuery("SELECT \\* FROM `test_model` WHERE `id` = \\?").WithArgs(1).WillReturnRows(rows)

	res, err := RawQuery[TestModel](db, "SELECT * FROM `test_model` WHERE `id` = ?", 1).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &TestModel{Id: 1, FirstName: "Tom", Age: 18}, res)
}

func TestRawQuerier_Exec(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := OpenDB(mockDB)
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE .*").WillReturnResult(sqlmock.NewResult(0, 0))
	res := RawQuery[any](db, "CREATE TABLE `t`(`id` INTEGER)").Exec(context.Background())
	require.NoError(t, res.Err())
	require.NoError(t, mock.ExpectationsWereMet())
}
