package errhdl

import (
	"encoding/json"
	"lightorm/web"
)

// MiddlewareBuilder 按状态码替换响应体，只能返回固定的值
type MiddlewareBuilder struct {
	resp map[int][]byte
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{
		resp: map[int][]byte{},
	}
}

func (m *MiddlewareBuilder) AddCode(status int, data []byte) *MiddlewareBuilder {
	m.resp[status] = data
	return m
}

// AddJSONError 对应状态码的响应体替换为 {"error": msg}
func (m *MiddlewareBuilder) AddJSONError(status int, msg string) *MiddlewareBuilder {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return m.AddCode(status, data)
}

func (m *MiddlewareBuilder) Build() web.Middleware {
	return func(next web.HandleFunc) web.HandleFunc {
		return func(ctx *web.Context) {
			next(ctx)
			resp, ok := m.resp[ctx.RespStatusCode]
			if ok {
				// 篡改结果
				ctx.RespData = resp
			}
		}
	}
}
