package accesslog

import (
	"encoding/json"
	"lightorm/web"
	"log"
	"time"
)

type MiddlewareBuilder struct {
	logFunc func(log string)
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		logFunc: func(accessLog string) {
			log.Println(accessLog)
		},
	}
}

func (m *MiddlewareBuilder) LogFunc(fn func(log string)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() web.Middleware {
	return func(next web.HandleFunc) web.HandleFunc {
		return func(ctx *web.Context) {
			start := time.Now()
			// next 可能会 panic，用 defer 保证一定记录
			defer func() {
				status := ctx.RespStatusCode
				if status == 0 {
					status = 200
				}
				l := accessLog{
					Host:       ctx.Req.Host,
					Route:      ctx.MatchRoute,
					HTTPMethod: ctx.Req.Method,
					Path:       ctx.Req.URL.Path,
					Status:     status,
					Duration:   time.Since(start).String(),
				}
				data, _ := json.Marshal(l)
				m.logFunc(string(data))
			}()
			next(ctx)
		}
	}
}

type accessLog struct {
	Host string `json:"host,omitempty"`
	// 命中的路由
	Route      string `json:"route,omitempty"`
	HTTPMethod string `json:"http_method,omitempty"`
	Path       string `json:"path,omitempty"`
	Status     int    `json:"status"`
	Duration   string `json:"duration"`
}
