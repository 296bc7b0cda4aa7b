// Package metrics instruments the cryptopan command-line surface with
// Prometheus counters and a histogram for the batch-anonymisation path.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the metrics registered for one CLI run. A nil *Recorder
// is safe to call methods on: every method is a no-op, so collaborators
// can be handed a nil Recorder when metrics are disabled instead of
// branching on it at every call site.
type Recorder struct {
	Processed *prometheus.CounterVec
	Errors    *prometheus.CounterVec
	Latency   prometheus.Histogram
}

// NewRecorder registers and returns a fresh set of metrics against reg.
// Passing nil registers against prometheus.DefaultRegisterer, the registry
// promhttp.Handler (and therefore Serve) exposes.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		Processed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptopan",
			Name:      "addresses_processed_total",
			Help:      "Addresses anonymised, by family (ip, mac, packet).",
		}, []string{"family"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cryptopan",
			Name:      "address_errors_total",
			Help:      "Addresses that failed to parse or anonymise, by reason.",
		}, []string{"reason"}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cryptopan",
			Name:      "anonymise_seconds",
			Help:      "Per-packet anonymisation latency.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
	}
}

// IncProcessed records one successfully anonymised address or packet.
func (r *Recorder) IncProcessed(family string) {
	if r == nil {
		return
	}
	r.Processed.WithLabelValues(family).Inc()
}

// IncErrors records one address or packet that failed to anonymise.
func (r *Recorder) IncErrors(reason string) {
	if r == nil {
		return
	}
	r.Errors.WithLabelValues(reason).Inc()
}

// ObserveLatency records the wall-clock time one anonymisation call took.
func (r *Recorder) ObserveLatency(d time.Duration) {
	if r == nil {
		return
	}
	r.Latency.Observe(d.Seconds())
}

// Serve starts a /metrics HTTP endpoint on addr. It blocks until the
// server stops or fails; call it in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
