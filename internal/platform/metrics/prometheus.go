package metrics

import (
	"time"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/assignment"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "staffing"

// PrometheusCollector は Prometheus にアサイン操作の計測を記録します。
type PrometheusCollector struct {
	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	validations *prometheus.CounterVec
}

var _ assignment.Metrics = (*PrometheusCollector)(nil)

// NewPrometheus は reg にメトリクスを登録した PrometheusCollector を生成します。
// reg が nil なら prometheus.DefaultRegisterer、namespace が空なら "staffing" を使います。
func NewPrometheus(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	p := &PrometheusCollector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "operations_total",
			Help:      "Total assignment operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "operation_duration_seconds",
			Help:      "Latency of assignment operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~2.5s
		}, []string{"op"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "workload_validations_total",
			Help:      "Workload validation results (accepted, warning, rejected).",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{p.operations, p.latency, p.validations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ObserveOperation は操作件数と所要時間を記録します。
func (p *PrometheusCollector) ObserveOperation(op, outcome string, elapsed time.Duration) {
	p.operations.WithLabelValues(op, outcome).Inc()
	p.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordValidation は稼働率検証の結果を記録します。
func (p *PrometheusCollector) RecordValidation(outcome string) {
	p.validations.WithLabelValues(outcome).Inc()
}
