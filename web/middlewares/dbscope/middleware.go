package dbscope

import (
	"lightorm/orm/scope"
	"lightorm/web"
	"log"
)

// MiddlewareBuilder 每个请求一个托管的 Scope，请求结束时统一释放会话
type MiddlewareBuilder struct {
	provider scope.FactoryProvider
	logFunc  func(format string, args ...any)
}

func NewMiddlewareBuilder(provider scope.FactoryProvider) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		provider: provider,
		logFunc:  log.Printf,
	}
}

func (m *MiddlewareBuilder) LogFunc(fn func(format string, args ...any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() web.Middleware {
	return func(next web.HandleFunc) web.HandleFunc {
		return func(ctx *web.Context) {
			s := scope.New(m.provider, scope.ScopeHosted(), scope.ScopeWithLogFunc(m.logFunc))
			ctx.Req = ctx.Req.WithContext(scope.NewContext(ctx.Req.Context(), s))
			// next panic 了也要把连接还回去
			defer func() {
				if err := s.Close(); err != nil {
					m.logFunc("dbscope: close scope %s on %s %s: %v", s.ID(), ctx.Req.Method, ctx.Req.URL.Path, err)
				}
			}()
			next(ctx)
		}
	}
}
