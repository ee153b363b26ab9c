package recover

import (
	"lightorm/web"
)

type MiddlewareBuilder struct {
	StatusCode int
	Data       []byte
	Log        func(ctx *web.Context, err any)
}

func (m MiddlewareBuilder) Build() web.Middleware {
	return func(next web.HandleFunc) web.HandleFunc {
		return func(ctx *web.Context) {
			defer func() {
				if err := recover(); err != nil {
					ctx.RespData = m.Data
					ctx.RespStatusCode = m.StatusCode
					if m.Log != nil {
						m.Log(ctx, err)
					}
				}
			}()
			next(ctx)
		}
	}
}
