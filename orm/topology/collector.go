package topology

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector 把每个 engine 的连接池状态导出成指标
type Collector struct {
	t *Topology

	maxOpen      *prometheus.Desc
	open         *prometheus.Desc
	inUse        *prometheus.Desc
	idle         *prometheus.Desc
	waitCount    *prometheus.Desc
	waitDuration *prometheus.Desc
	maxLifetime  *prometheus.Desc
}

var _ prometheus.Collector = &Collector{}

func NewCollector(t *Topology, namespace string) *Collector {
	labels := []string{"bind", "op"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "db_pool", name), help, labels, nil)
	}
	return &Collector{
		t:            t,
		maxOpen:      desc("max_open_connections", "Maximum number of open connections to the database."),
		open:         desc("open_connections", "The number of established connections both in use and idle."),
		inUse:        desc("in_use_connections", "The number of connections currently in use."),
		idle:         desc("idle_connections", "The number of idle connections."),
		waitCount:    desc("wait_count_total", "The total number of connections waited for."),
		waitDuration: desc("wait_duration_seconds_total", "The total time blocked waiting for a new connection."),
		maxLifetime:  desc("max_lifetime_closed_total", "The total number of connections closed due to SetConnMaxLifetime."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxOpen
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waitCount
	ch <- c.waitDuration
	ch <- c.maxLifetime
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.t.Disposed() {
		return
	}
	for _, e := range c.t.Engines() {
		st := e.Stats()
		op := e.Op.String()
		ch <- prometheus.MustNewConstMetric(c.maxOpen, prometheus.GaugeValue, float64(st.MaxOpenConnections), e.Bind, op)
		ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(st.OpenConnections), e.Bind, op)
		ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(st.InUse), e.Bind, op)
		ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(st.Idle), e.Bind, op)
		ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(st.WaitCount), e.Bind, op)
		ch <- prometheus.MustNewConstMetric(c.waitDuration, prometheus.CounterValue, st.WaitDuration.Seconds(), e.Bind, op)
		ch <- prometheus.MustNewConstMetric(c.maxLifetime, prometheus.CounterValue, float64(st.MaxLifetimeClosed), e.Bind, op)
	}
}
