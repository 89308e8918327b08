package cluster

import "github.com/prometheus/client_golang/prometheus"

// Recorder exposes cluster health as prometheus metrics: the same
// instrumentation style the teacher wires its stats package up with,
// applied to a client library instead of a storage target.
type Recorder struct {
	pingLatency    *prometheus.HistogramVec
	ingressErrors  prometheus.Counter
	nodeState      *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		pingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ndbc",
			Name:      "node_ping_ms",
			Help:      "Round-trip latency of ismaster probes, in milliseconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		ingressErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ndbc",
			Name:      "protocol_ingress_errors_total",
			Help:      "Count of malformed or short reads off the wire.",
		}),
		nodeState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ndbc",
			Name:      "node_state",
			Help:      "1 if the node is currently selectable (primary or eligible secondary), else 0.",
		}, []string{"node"}),
	}
	return r
}

func (r *Recorder) ObservePing(node string, ms float64) {
	r.pingLatency.WithLabelValues(node).Observe(ms)
}

func (r *Recorder) IngressError() {
	r.ingressErrors.Inc()
}

func (r *Recorder) SetNodeState(node string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	r.nodeState.WithLabelValues(node).Set(v)
}

// Collectors returns the metrics for registration with a prometheus.Registry.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.pingLatency, r.ingressErrors, r.nodeState}
}
