// Package metrics exposes Prometheus counters for coupon operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation names used as the "operation" label.
const (
	OpSubmit        = "submit"
	OpValidateCode  = "validate_code"
	OpValidateStore = "validate_store"
)

// Result values used as the "result" label.
const (
	ResultOK        = "ok"
	ResultValid     = "valid"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

// Metrics holds the collectors of the service.
type Metrics struct {
	operations *prometheus.CounterVec
	generated  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coupon",
			Name:      "operations_total",
			Help:      "Coupon operations by outcome.",
		}, []string{"operation", "result"}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coupon",
			Name:      "generated_codes_total",
			Help:      "Submissions that asked the code generator for a code.",
		}),
	}
	reg.MustRegister(m.operations, m.generated)
	return m
}

// Observe counts one operation with the given result. Safe on a nil receiver.
func (m *Metrics) Observe(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// CodeGenerated counts one generator-backed submission. Safe on a nil receiver.
func (m *Metrics) CodeGenerated() {
	if m == nil {
		return
	}
	m.generated.Inc()
}

// Operations exposes the operation counter, mainly for tests.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}

// Generated exposes the generated-code counter, mainly for tests.
func (m *Metrics) Generated() prometheus.Counter {
	return m.generated
}
