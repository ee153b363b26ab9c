package dbscope

import (
	"context"
	"errors"
	"fmt"
	"lightorm/orm"
	"lightorm/orm/model"
	"lightorm/orm/scope"
	"lightorm/web"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type provider map[scope.OperationType]*scope.Factory

func (p provider) Factory(op scope.OperationType) (*scope.Factory, error) {
	f, ok := p[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scope.ErrNoSessionFactory, op)
	}
	return f, nil
}

type Account struct {
	Id int64
}

func newProvider(t *testing.T) (provider, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})
	db, err := orm.OpenDB(mockDB)
	require.NoError(t, err)
	return provider{
		scope.OpWrite: scope.NewFactory(scope.OpWrite, map[model.Base]*orm.DB{"": db}),
	}, mock
}

func TestMiddlewareBuilder_Build(t *testing.T) {
	p, mock := newProvider(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	var logs []string
	builder := NewMiddlewareBuilder(p).LogFunc(func(format string, args ...any) {
		logs = append(logs, fmt.Sprintf(format, args...))
	})
	server := web.NewHTTPServer(web.ServerWithMiddleware(builder.Build()))

	var sessions []*scope.Session
	server.Post("/api/v1.0/users", func(ctx *web.Context) {
		s, ok := scope.FromContext(ctx.Req.Context())
		require.True(t, ok)
		assert.True(t, s.Hosted())
		for i := 0; i < 2; i++ {
			err := s.WithSession(ctx.Req.Context(), scope.OpWrite, func(c context.Context, sess *scope.Session) error {
				sessions = append(sessions, sess)
				_, err := sess.Bind(c, &Account{})
				if err != nil {
					return err
				}
				if i == 1 {
					return errors.New("duplicate user")
				}
				return nil
			})
			if err != nil {
				ctx.RespError(http.StatusConflict, err)
				return
			}
		}
	})

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1.0/users", nil))
	assert.Equal(t, http.StatusConflict, recorder.Code)

	require.Len(t, sessions, 2)
	// 一个请求内同一个操作类型共用一个会话
	assert.Same(t, sessions[0], sessions[1])
	assert.Equal(t, scope.StateReleased, sessions[0].State())
	assert.Empty(t, logs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddlewareBuilder_Build_Panic(t *testing.T) {
	p, mock := newProvider(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	builder := NewMiddlewareBuilder(p).LogFunc(func(string, ...any) {})
	server := web.NewHTTPServer(web.ServerWithMiddleware(builder.Build()))
	var sess *scope.Session
	server.Get("/api/v1.0/users/:id", func(ctx *web.Context) {
		s, _ := scope.FromContext(ctx.Req.Context())
		var err error
		sess, err = s.Acquire(scope.OpWrite)
		require.NoError(t, err)
		_, err = sess.Bind(ctx.Req.Context(), &Account{})
		require.NoError(t, err)
		panic("handler panic")
	})

	assert.PanicsWithValue(t, "handler panic", func() {
		server.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1.0/users/1", nil))
	})
	// 没结束的事务在请求结束时回滚
	assert.Equal(t, scope.StateReleased, sess.State())
	require.NoError(t, mock.ExpectationsWereMet())
}
