package metrics

import (
	"time"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/assignment"
)

// NopMetrics はすべての計測を破棄します。
type NopMetrics struct{}

var _ assignment.Metrics = (*NopMetrics)(nil)

// NewNop は NopMetrics を生成します。
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ObserveOperation は何もしません。
func (n *NopMetrics) ObserveOperation(_, _ string, _ time.Duration) {}

// RecordValidation は何もしません。
func (n *NopMetrics) RecordValidation(_ string) {}
