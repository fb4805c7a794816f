package repository

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type requestMetrics struct {
	requests *prometheus.CounterVec
}

// newRequestMetrics registers the request counter with reg, reusing an already
// registered collector. A nil reg keeps the counter unregistered.
func newRequestMetrics(reg prometheus.Registerer) *requestMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tgit",
		Name:      "http_requests_total",
		Help:      "Requests issued to the Tencent Git API by method and status code.",
	}, []string{"method", "code"})
	if reg != nil {
		if err := reg.Register(requests); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
					requests = existing
				}
			}
		}
	}
	return &requestMetrics{requests: requests}
}

func (m *requestMetrics) observe(method string, statusCode int) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.requests.WithLabelValues(method, code).Inc()
}
