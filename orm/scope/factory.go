package scope

import (
	"database/sql"
	"fmt"
	"lightorm/orm"
	"lightorm/orm/model"
	"sync/atomic"
)

//go:generate mockgen -destination=mocks/provider.mock.go -package=mocks lightorm/orm/scope FactoryProvider

// FactoryProvider 按操作类型提供会话工厂，topology 实现了它
type FactoryProvider interface {
	Factory(op OperationType) (*Factory, error)
}

// Factory 持有一个操作类型下 base 到 engine 的路由表
type Factory struct {
	op      OperationType
	engines map[model.Base]*orm.DB
	r       model.Registry
	txOpts  *sql.TxOptions

	disposed atomic.Bool
}

type FactoryOption func(f *Factory)

// FactoryWithRegistry 和 engine 共用同一份元数据
func FactoryWithRegistry(r model.Registry) FactoryOption {
	return func(f *Factory) {
		f.r = r
	}
}

func FactoryWithTxOptions(opts *sql.TxOptions) FactoryOption {
	return func(f *Factory) {
		f.txOpts = opts
	}
}

func NewFactory(op OperationType, engines map[model.Base]*orm.DB, opts ...FactoryOption) *Factory {
	routes := make(map[model.Base]*orm.DB, len(engines))
	for b, db := range engines {
		routes[b] = db
	}
	f := &Factory{
		op:      op,
		engines: routes,
		r:       model.NewRegistry(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Op() OperationType {
	return f.op
}

// Engine 按 base 找 engine，只有一个 engine 的时候没有声明 base 的实体也路由到它
func (f *Factory) Engine(base model.Base) (*orm.DB, error) {
	if f.disposed.Load() {
		return nil, ErrEngineDisposed
	}
	if db, ok := f.engines[base]; ok {
		return db, nil
	}
	if base == "" && len(f.engines) == 1 {
		for _, db := range f.engines {
			return db, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (%s)", ErrUnboundModel, base, f.op)
}

// EngineFor 先解析实体的元数据再路由
func (f *Factory) EngineFor(entity any) (*orm.DB, error) {
	m, err := f.r.Get(entity)
	if err != nil {
		return nil, err
	}
	return f.Engine(m.Base)
}

// Dispose 之后工厂不再交出 engine
func (f *Factory) Dispose() {
	f.disposed.Store(true)
}

func (f *Factory) Disposed() bool {
	return f.disposed.Load()
}
