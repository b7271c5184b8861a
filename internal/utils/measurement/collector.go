package measurement

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mapmosaic"

// Collector exports the points of the service to prometheus
type Collector struct {
	ms      *Service
	count   *prometheus.Desc
	errors  *prometheus.Desc
	total   *prometheus.Desc
	average *prometheus.Desc
	max     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(ms *Service) *Collector {
	labels := []string{"point"}
	return &Collector{
		ms:      ms,
		count:   prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "count_total"), "Number of finished measurements", labels, nil),
		errors:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "errors_total"), "Number of failed measurements", labels, nil),
		total:   prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "duration_milliseconds_total"), "Accrued duration", labels, nil),
		average: prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "duration_milliseconds_average"), "Average duration", labels, nil),
		max:     prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "duration_milliseconds_max"), "Longest duration", labels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.count
	ch <- c.errors
	ch <- c.total
	ch <- c.average
	ch <- c.max
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, d := range c.ms.Datas() {
		ch <- prometheus.MustNewConstMetric(c.count, prometheus.CounterValue, float64(d.Count), d.Name)
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(d.Errors), d.Name)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.CounterValue, float64(d.Total), d.Name)
		ch <- prometheus.MustNewConstMetric(c.average, prometheus.GaugeValue, float64(d.Average), d.Name)
		ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(d.Max), d.Name)
	}
}
