package checkout

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the instruments the service observes into. Vectors are
// created and registered in main and injected here; a nil Metrics (or nil
// vector) disables observation, which keeps tests quiet.
type Metrics struct {
	Requests *prometheus.CounterVec   // checkout_requests_total{use_case,outcome}
	Duration *prometheus.HistogramVec // checkout_duration_seconds{use_case}
}

func (m *Metrics) observe(useCase, outcome string, seconds float64) {
	if m == nil {
		return
	}
	if m.Requests != nil {
		m.Requests.WithLabelValues(useCase, outcome).Inc()
	}
	if m.Duration != nil {
		m.Duration.WithLabelValues(useCase).Observe(seconds)
	}
}
