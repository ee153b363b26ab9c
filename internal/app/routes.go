package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"lightorm/orm"
	"lightorm/orm/query"
	"lightorm/orm/scope"
	"lightorm/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix        = "/api/v1.0"
	defaultPageCount = 20
)

func (a *App) routes(server *web.HTTPServer) {
	metrics := promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	server.Get("/metrics", func(ctx *web.Context) {
		metrics.ServeHTTP(ctx.Resp, ctx.Req)
	})
	server.Get("/health", a.health)
	server.Get(apiPrefix+"/users", a.listUsers)
	server.Get(apiPrefix+"/users/:id", a.getUser)
	server.Post(apiPrefix+"/users", a.createUsers)
	server.Post(apiPrefix+"/users/query", a.queryUsers)
}

func (a *App) health(ctx *web.Context) {
	if err := a.topo.Ping(ctx.Req.Context()); err != nil {
		a.respError(ctx, err)
		return
	}
	_ = ctx.RespJSONOK(map[string]string{"status": "ok"})
}

// queryUsers 请求体就是 QueryRequest
func (a *App) queryUsers(ctx *web.Context) {
	var body map[string]any
	if err := ctx.BindJSON(&body); err != nil {
		ctx.RespError(http.StatusBadRequest, err)
		return
	}
	res, err := a.users.ReadAll(ctx.Req.Context(), body)
	if err != nil {
		a.respError(ctx, err)
		return
	}
	a.respResult(ctx, res)
}

// listUsers 查询参数里的 page 和 page_count 转成分页，都不传就是第一页
func (a *App) listUsers(ctx *web.Context) {
	page, pErr := ctx.QueryValue("page").AsInt64()
	pageCount, cErr := ctx.QueryValue("page_count").AsInt64()
	switch {
	case pErr == nil && cErr == nil:
	case errors.Is(pErr, web.ErrKeyNotFound) && errors.Is(cErr, web.ErrKeyNotFound):
		page, pageCount = 1, defaultPageCount
	default:
		ctx.RespError(http.StatusBadRequest, errors.New("page and page_count must be integers"))
		return
	}
	body := map[string]any{
		"pagination": map[string]any{"page": page, "page_count": pageCount},
	}
	res, err := a.users.ReadAll(ctx.Req.Context(), body)
	if err != nil {
		a.respError(ctx, err)
		return
	}
	a.respResult(ctx, res)
}

func (a *App) getUser(ctx *web.Context) {
	id, err := ctx.PathValue("id").AsInt64()
	if err != nil {
		ctx.RespError(http.StatusBadRequest, err)
		return
	}
	u, err := a.users.ReadOne(ctx.Req.Context(), id)
	if err != nil {
		a.respError(ctx, err)
		return
	}
	_ = ctx.RespJSONOK(u)
}

// createUsers 接受单个对象或者对象数组
func (a *App) createUsers(ctx *web.Context) {
	var raw json.RawMessage
	if err := ctx.BindJSON(&raw); err != nil {
		ctx.RespError(http.StatusBadRequest, err)
		return
	}
	users, err := decodeUsers(raw)
	if err != nil {
		ctx.RespError(http.StatusBadRequest, err)
		return
	}
	affected, err := a.users.Create(ctx.Req.Context(), users...)
	if err != nil {
		a.respError(ctx, err)
		return
	}
	_ = ctx.RespJSON(http.StatusCreated, map[string]int64{"created": affected})
}

func (a *App) respResult(ctx *web.Context, res *query.Result[User]) {
	if res.Records != nil {
		_ = ctx.RespJSONOK(map[string]any{"data": res.Records})
		return
	}
	users := res.Entities
	if users == nil {
		users = []*User{}
	}
	_ = ctx.RespJSONOK(map[string]any{"data": users})
}

// respError 按错误类型映射状态码，未知错误不把细节暴露给客户端
func (a *App) respError(ctx *web.Context, err error) {
	var (
		vErr *query.ValidationError
		sErr *query.SchemaError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &sErr):
		ctx.RespError(http.StatusBadRequest, err)
	case errors.Is(err, orm.ErrNoRows):
		ctx.RespError(http.StatusNotFound, err)
	case errors.Is(err, orm.ErrPoolTimeout), errors.Is(err, scope.ErrEngineDisposed):
		ctx.RespError(http.StatusServiceUnavailable, err)
	default:
		a.logger.Error("request failed", "path", ctx.Req.URL.Path, "error", err)
		ctx.RespError(http.StatusInternalServerError, errors.New("internal server error"))
	}
}
