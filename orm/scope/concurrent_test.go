package scope_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"lightorm/orm"
	"lightorm/orm/model"
	"lightorm/orm/scope"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 多个 goroutine 各自开 Scope 共用一个 engine，会话互不共享，结束之后连接全部归还
func TestScope_Concurrent(t *testing.T) {
	db, err := orm.Open("sqlite3", filepath.Join(t.TempDir(), "concurrent.db"),
		orm.DBWithDialect(orm.DialectSQLite))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	ctx := context.Background()
	require.NoError(t, orm.RawQuery[any](db,
		"CREATE TABLE `account`(`id` INTEGER PRIMARY KEY,`name` TEXT NOT NULL);").Exec(ctx).Err())
	require.NoError(t, orm.NewInserter[Account](db).Values(
		&Account{Id: 1, Name: "alice"},
		&Account{Id: 2, Name: "bob"},
	).Exec(ctx).Err())

	provider := staticProvider{
		scope.OpRead: scope.NewFactory(scope.OpRead, map[model.Base]*orm.DB{"accounts": db}),
	}
	errAbort := errors.New("abort")

	const workers = 50
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]struct{}, workers)
	)
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := scope.New(provider, scope.ScopeWithLogFunc(func(string, ...any) {}))
			err := s.WithSession(ctx, scope.OpRead, func(ctx context.Context, sess *scope.Session) error {
				mu.Lock()
				ids[sess.ID()] = struct{}{}
				mu.Unlock()
				tx, err := scope.BindFor[Account](ctx, sess)
				if err != nil {
					return err
				}
				accounts, err := orm.NewSelector[Account](tx).GetMulti(ctx)
				if err != nil {
					return err
				}
				if len(accounts) != 2 {
					return errors.New("unexpected account count")
				}
				// 一半的工作单元回滚
				if i%2 == 1 {
					return errAbort
				}
				return nil
			})
			if i%2 == 1 && errors.Is(err, errAbort) {
				err = nil
			}
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		assert.NoError(t, err)
	}
	assert.Len(t, ids, workers)
	assert.Equal(t, 0, db.Stats().InUse)
}
