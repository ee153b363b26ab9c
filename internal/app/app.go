package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lightorm/config"
	"lightorm/orm"
	ormotel "lightorm/orm/middlewares/opentelemetry"
	ormprom "lightorm/orm/middlewares/prometheus"
	"lightorm/orm/middlewares/querylog"
	"lightorm/orm/middlewares/slowquery"
	"lightorm/orm/query"
	"lightorm/orm/repo"
	"lightorm/orm/topology"
	"lightorm/web"
	"lightorm/web/middlewares/accesslog"
	"lightorm/web/middlewares/dbscope"
	"lightorm/web/middlewares/errhdl"
	webotel "lightorm/web/middlewares/opentelemetry"
	webprom "lightorm/web/middlewares/prometheus"
	"lightorm/web/middlewares/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	instrumentationName = "lightorm"
	planCacheSize       = 128
)

// App 持有进程级别的所有依赖，没有全局变量
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	opener   topology.Opener
	topo     *topology.Topology
	tp       *sdktrace.TracerProvider
	registry *prometheus.Registry
	plans    *query.PlanCache
	server   *web.HTTPServer

	users *repo.Repository[User]
}

type Option func(a *App)

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithOpener 替换连接池的打开方式
func WithOpener(opener topology.Opener) Option {
	return func(a *App) {
		a.opener = opener
	}
}

// New 按配置建好 tracer、metrics、topology 和 HTTP 路由。
// 任何一步失败都会把已经建好的资源释放掉
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	tp, err := newTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.tp = tp

	plans, err := query.NewPlanCache(planCacheSize)
	if err != nil {
		_ = a.tp.Shutdown(ctx)
		return nil, err
	}
	a.plans = plans

	topoOpts := []topology.Option{
		topology.WithLogFunc(a.logf),
		topology.WithMiddlewares(a.ormMiddlewares()...),
	}
	if a.opener != nil {
		topoOpts = append(topoOpts, topology.WithOpener(a.opener))
	}
	topo, err := topology.Open(ctx, cfg.Databases, topoOpts...)
	if err != nil {
		_ = a.tp.Shutdown(ctx)
		return nil, err
	}
	a.topo = topo
	a.registry.MustRegister(
		topology.NewCollector(topo, cfg.Metrics.Namespace),
		collectors.NewGoCollector(),
	)

	a.users = repo.New[User](topo, repo.WithPlanCache(plans), repo.WithLogFunc(a.logf))
	a.server = a.newServer()
	return a, nil
}

func (a *App) ormMiddlewares() []orm.Middleware {
	mdls := []orm.Middleware{
		ormotel.MiddlewareBuilder{Tracer: a.tp.Tracer(instrumentationName + "/orm")}.Build(),
		ormprom.MiddlewareBuilder{
			Namespace:  a.cfg.Metrics.Namespace,
			Subsystem:  "orm",
			Name:       "query_duration_ms",
			Help:       "orm query duration in milliseconds",
			Registerer: a.registry,
		}.Build(),
	}
	if threshold := a.cfg.SlowQueryThreshold.Std(); threshold > 0 {
		mdls = append(mdls, slowquery.NewMiddlewareBuilder(threshold).
			LogFunc(func(e slowquery.Entry) {
				a.logger.Warn("slow query", "type", e.Type, "table", e.Table,
					"sql", e.SQL, "args", e.Args, "duration", e.Duration)
			}).Build())
	}
	// debug 模式下回显所有 SQL
	if a.cfg.Debug {
		mdls = append(mdls, querylog.NewMiddlewareBuilder().
			LogFunc(func(e querylog.Entry) {
				a.logger.Debug("sql", "type", e.Type, "table", e.Table,
					"sql", e.SQL, "args", e.Args, "duration", e.Duration, "error", e.Err)
			}).Build())
	}
	return mdls
}

func (a *App) newServer() *web.HTTPServer {
	server := web.NewHTTPServer(
		web.ServerWithLogFunc(a.logf),
		web.ServerWithMiddleware(
			accesslog.NewMiddlewareBuilder().LogFunc(func(entry string) {
				a.logger.Info("access", "entry", entry)
			}).Build(),
			webprom.MiddlewareBuilder{
				Namespace:  a.cfg.Metrics.Namespace,
				Subsystem:  "http",
				Name:       "response_ms",
				Help:       "http response time in milliseconds",
				Registerer: a.registry,
			}.Build(),
			webotel.MiddlewareBuilder{Tracer: a.tp.Tracer(instrumentationName + "/web")}.Build(),
			errhdl.NewMiddlewareBuilder().AddJSONError(404, "not found").Build(),
			recover.MiddlewareBuilder{
				StatusCode: 500,
				Data:       []byte(`{"error":"internal server error"}`),
				Log: func(ctx *web.Context, err any) {
					a.logger.Error("panic", "path", ctx.Req.URL.Path, "error", err)
				},
			}.Build(),
			dbscope.NewMiddlewareBuilder(a.topo).LogFunc(a.logf).Build(),
		),
	)
	a.routes(server)
	return server
}

func (a *App) logf(format string, args ...any) {
	a.logger.Info(fmt.Sprintf(format, args...))
}

func (a *App) Config() config.Config {
	return a.cfg
}

func (a *App) Topology() *topology.Topology {
	return a.topo
}

func (a *App) Users() *repo.Repository[User] {
	return a.users
}

func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

func (a *App) Handler() *web.HTTPServer {
	return a.server
}

// Run 阻塞到 ctx 结束
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("http server starting", "addr", a.cfg.HTTP.Addr)
	return a.server.Run(ctx, a.cfg.HTTP.Addr)
}

// Close 释放连接池并把没有导出的 span 刷出去，可以重复调用
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.topo.Dispose(), a.tp.Shutdown(ctx))
}
