// (c) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package throttle

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SudarsanSridharan16/vespa/utils/wrappers"
)

// InstrumentedPolicy wraps a *DynamicPolicy and reports its window
// size and admission outcomes to Prometheus. The
// DynamicPolicy itself stays free of any metrics dependency, matching
// spec §5's "no suspension points / no I/O" contract on the core's hot
// path; all reporting here is non-blocking gauge/counter sets.
type InstrumentedPolicy struct {
	*DynamicPolicy

	windowSize prometheus.Gauge
	admitted   prometheus.Counter
	denied     prometheus.Counter
}

// NewInstrumentedPolicy wraps policy and registers its metrics under
// namespace with registerer. If registration of any metric fails, the
// first error is returned and the wrapped policy is still usable with
// metrics collection skipped for anything that failed to register.
func NewInstrumentedPolicy(
	policy *DynamicPolicy,
	namespace string,
	registerer prometheus.Registerer,
) (*InstrumentedPolicy, error) {
	ip := &InstrumentedPolicy{
		DynamicPolicy: policy,
		windowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "throttle_window_size",
			Help:      "Current (possibly fractional) dynamic throttle window size.",
		}),
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttle_admitted_total",
			Help:      "Number of CanSend calls that returned true.",
		}),
		denied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttle_denied_total",
			Help:      "Number of CanSend calls that returned false.",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(ip.windowSize),
		registerer.Register(ip.admitted),
		registerer.Register(ip.denied),
	)
	return ip, errs.Err
}

// CanSend wraps DynamicPolicy.CanSend, reporting the admission outcome
// and the post-call window size.
func (ip *InstrumentedPolicy) CanSend(msg Message, pendingCount int) bool {
	ok := ip.DynamicPolicy.CanSend(msg, pendingCount)
	if ok {
		ip.admitted.Inc()
	} else {
		ip.denied.Inc()
	}
	ip.windowSize.Set(ip.DynamicPolicy.WindowSize())
	return ok
}

// ProcessMessage wraps DynamicPolicy.ProcessMessage, refreshing the
// window size gauge after any resize that may have occurred.
func (ip *InstrumentedPolicy) ProcessMessage(msg Message) {
	ip.DynamicPolicy.ProcessMessage(msg)
	ip.windowSize.Set(ip.DynamicPolicy.WindowSize())
}
