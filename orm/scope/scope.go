package scope

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Scope 是一个工作单元，每个操作类型最多持有一个会话。
// 非托管模式下 WithSession 结束就释放会话，托管模式（例如一次 HTTP 请求）下由 Close 统一释放
type Scope struct {
	id       string
	provider FactoryProvider
	hosted   bool
	logFunc  func(format string, args ...any)

	mu       sync.Mutex
	sessions map[OperationType]*Session
}

type Option func(s *Scope)

func ScopeHosted() Option {
	return func(s *Scope) {
		s.hosted = true
	}
}

func ScopeWithLogFunc(fn func(format string, args ...any)) Option {
	return func(s *Scope) {
		s.logFunc = fn
	}
}

func New(provider FactoryProvider, opts ...Option) *Scope {
	s := &Scope{
		id:       uuid.New().String(),
		provider: provider,
		logFunc:  log.Printf,
		sessions: make(map[OperationType]*Session, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scope) ID() string {
	return s.id
}

func (s *Scope) Hosted() bool {
	return s.hosted
}

// Acquire 同一个 Scope 内同一个操作类型拿到的是同一个会话
func (s *Scope) Acquire(op OperationType) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[op]; ok {
		return sess, nil
	}
	if op != OpRead && op != OpWrite {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperationType, op)
	}
	f, err := s.provider.Factory(op)
	if err != nil {
		return nil, err
	}
	if f.Disposed() {
		return nil, ErrEngineDisposed
	}
	sess := newSession(f)
	s.sessions[op] = sess
	return sess, nil
}

// WithSession 正常返回就提交；fn 返回错误或者 panic 就回滚，错误原样返回，panic 继续向上抛
func (s *Scope) WithSession(ctx context.Context, op OperationType,
	fn func(ctx context.Context, sess *Session) error) (err error) {
	sess, err := s.Acquire(op)
	if err != nil {
		return err
	}
	if !s.hosted {
		defer func() {
			if rErr := s.Release(op); rErr != nil {
				if err == nil {
					err = rErr
				} else {
					s.logFunc("scope %s: release %s session: %v", s.id, op, rErr)
				}
			}
		}()
	}
	defer func() {
		if r := recover(); r != nil {
			if rbErr := sess.Rollback(); rbErr != nil {
				s.logFunc("scope %s: rollback %s session after panic: %v", s.id, op, rbErr)
			}
			panic(r)
		}
	}()
	if err = fn(ctx, sess); err != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			s.logFunc("scope %s: rollback %s session: %v", s.id, op, rbErr)
		}
		return err
	}
	return sess.Commit()
}

// Release 释放会话，没有获取过或者已经释放过都直接返回
func (s *Scope) Release(op OperationType) error {
	s.mu.Lock()
	sess, ok := s.sessions[op]
	delete(s.sessions, op)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.close()
}

// Close 释放这个 Scope 用过的所有会话，托管模式下由请求结束的钩子调用
func (s *Scope) Close() error {
	var err error
	for _, op := range []OperationType{OpRead, OpWrite} {
		err = errors.Join(err, s.Release(op))
	}
	return err
}

type scopeKey struct{}

func NewContext(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}
