package web

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

type HandleFunc func(ctx *Context)

// 确保某个结构体一定实现了某个接口
var _ Server = &HTTPServer{}

type Server interface {
	http.Handler
	Start(addr string) error
}

type HTTPServerOption func(server *HTTPServer)

type HTTPServer struct {
	router

	mdls []Middleware
	log  func(msg string, args ...any)

	shutdownTimeout time.Duration
}

func NewHTTPServer(opts ...HTTPServerOption) *HTTPServer {
	res := &HTTPServer{
		router:          newRouter(),
		log:             log.Printf,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func ServerWithMiddleware(mdls ...Middleware) HTTPServerOption {
	return func(server *HTTPServer) {
		server.mdls = append(server.mdls, mdls...)
	}
}

func ServerWithLogFunc(fn func(msg string, args ...any)) HTTPServerOption {
	return func(server *HTTPServer) {
		server.log = fn
	}
}

// ServerWithShutdownTimeout Run 退出时等待在途请求的最长时间
func ServerWithShutdownTimeout(timeout time.Duration) HTTPServerOption {
	return func(server *HTTPServer) {
		server.shutdownTimeout = timeout
	}
}

// ServeHTTP 处理请求的入口
func (h *HTTPServer) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	ctx := &Context{
		Req:  request,
		Resp: writer,
	}

	// 从后往前，把后一个作为前一个的 next
	root := h.serve
	for i := len(h.mdls) - 1; i >= 0; i-- {
		root = h.mdls[i](root)
	}

	// 最后一步把 RespData 和 RespStatusCode 刷新到响应里
	var m Middleware = func(next HandleFunc) HandleFunc {
		return func(ctx *Context) {
			next(ctx)
			h.flashResp(ctx)
		}
	}
	root = m(root)

	root(ctx)
}

func (h *HTTPServer) flashResp(ctx *Context) {
	if ctx.RespStatusCode != 0 {
		ctx.Resp.WriteHeader(ctx.RespStatusCode)
	}
	n, err := ctx.Resp.Write(ctx.RespData)
	if err != nil || n != len(ctx.RespData) {
		h.log("web: failed to write response: %v", err)
	}
}

func (h *HTTPServer) serve(ctx *Context) {
	info, ok := h.findRoute(ctx.Req.Method, ctx.Req.URL.Path)
	if !ok || info.n.handler == nil {
		// 路由没有命中
		ctx.RespStatusCode = http.StatusNotFound
		ctx.RespData = []byte("NOT FOUND")
		return
	}
	ctx.PathParams = info.pathParams
	ctx.MatchRoute = info.n.route
	info.n.handler(ctx)
}

func (h *HTTPServer) Get(path string, handleFunc HandleFunc) {
	h.addRoute(http.MethodGet, path, handleFunc)
}

func (h *HTTPServer) Post(path string, handleFunc HandleFunc) {
	h.addRoute(http.MethodPost, path, handleFunc)
}

func (h *HTTPServer) Options(path string, handleFunc HandleFunc) {
	h.addRoute(http.MethodOptions, path, handleFunc)
}

func (h *HTTPServer) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return http.Serve(l, h)
}

// Run 和 Start 一样监听 addr，ctx 结束后优雅退出
func (h *HTTPServer) Run(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	h.log("web: listening on %s", l.Addr())
	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
