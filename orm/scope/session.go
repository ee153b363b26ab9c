package scope

import (
	"context"
	"errors"
	"lightorm/orm"

	"github.com/google/uuid"
)

// Session 是一个工作单元内某个操作类型的会话。
// 每个 engine 上第一次 Bind 的时候才开启事务，之后复用到提交或者回滚为止。
// Session 不能并发使用
type Session struct {
	id      string
	op      OperationType
	factory *Factory

	txs   map[*orm.DB]*orm.Tx
	order []*orm.DB
	state State
}

func newSession(f *Factory) *Session {
	return &Session{
		id:      uuid.New().String(),
		op:      f.op,
		factory: f,
		txs:     make(map[*orm.DB]*orm.Tx, 2),
		state:   StateAcquired,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Op() OperationType {
	return s.op
}

func (s *Session) State() State {
	return s.state
}

// Bind 返回 entity 所在 engine 上的事务
func (s *Session) Bind(ctx context.Context, entity any) (orm.Session, error) {
	if s.state == StateReleased {
		return nil, ErrSessionReleased
	}
	db, err := s.factory.EngineFor(entity)
	if err != nil {
		return nil, err
	}
	if tx, ok := s.txs[db]; ok {
		return tx, nil
	}
	tx, err := db.BeginTx(ctx, s.factory.txOpts)
	if err != nil {
		return nil, err
	}
	s.txs[db] = tx
	s.order = append(s.order, db)
	s.state = StateAcquired
	return tx, nil
}

// BindFor 是 Bind 的泛型版本
func BindFor[T any](ctx context.Context, s *Session) (orm.Session, error) {
	return s.Bind(ctx, new(T))
}

// Commit 按 Bind 的顺序依次提交。某个 engine 提交失败就停下来，
// 回滚剩下还没提交的事务，返回提交失败的错误
func (s *Session) Commit() error {
	if s.state == StateReleased {
		return ErrSessionReleased
	}
	for i, db := range s.order {
		if err := s.txs[db].Commit(); err != nil {
			for _, rest := range s.order[i+1:] {
				if rbErr := s.txs[rest].RollbackIfNotCommit(); rbErr != nil {
					err = errors.Join(err, rbErr)
				}
			}
			s.reset()
			s.state = StateRolledBack
			return err
		}
	}
	s.reset()
	s.state = StateCommitted
	return nil
}

func (s *Session) Rollback() error {
	if s.state == StateReleased {
		return ErrSessionReleased
	}
	var err error
	for _, db := range s.order {
		err = errors.Join(err, s.txs[db].RollbackIfNotCommit())
	}
	s.reset()
	s.state = StateRolledBack
	return err
}

// close 回滚没有结束的事务，连接归还连接池
func (s *Session) close() error {
	if s.state == StateReleased {
		return nil
	}
	var err error
	for _, db := range s.order {
		err = errors.Join(err, s.txs[db].RollbackIfNotCommit())
	}
	s.reset()
	s.state = StateReleased
	return err
}

func (s *Session) reset() {
	s.txs = make(map[*orm.DB]*orm.Tx, 2)
	s.order = nil
}
