package prometheus

import (
	"lightorm/web"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	// Registerer 为空时注册到默认的 registry
	Registerer prometheus.Registerer
}

func (m MiddlewareBuilder) Build() web.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      m.Help,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{"pattern", "method", "status"})
	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(vector)
	return func(next web.HandleFunc) web.HandleFunc {
		return func(ctx *web.Context) {
			startTime := time.Now()
			defer func() {
				// 没命中路由的请求统一归到 unknown，避免 label 爆炸
				pattern := ctx.MatchRoute
				if pattern == "" {
					pattern = "unknown"
				}
				status := ctx.RespStatusCode
				if status == 0 {
					status = http.StatusOK
				}
				vector.WithLabelValues(pattern, ctx.Req.Method, strconv.Itoa(status)).
					Observe(float64(time.Since(startTime).Milliseconds()))
			}()
			next(ctx)
		}
	}
}
