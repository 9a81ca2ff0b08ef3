package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	structureSaves *prometheus.CounterVec
	itemMutations  *prometheus.CounterVec
	requests       *prometheus.CounterVec
	watchers       prometheus.Gauge
	gatherer       prometheus.Gatherer
}

func newCounter(reg prometheus.Registerer, name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	reg.MustRegister(c)
	return c
}

func newMetrics(reg *prometheus.Registry) *metrics {
	return &metrics{
		structureSaves: newCounter(reg, "menubuilder_structure_saves_total", "Structure saves by result.", "result"),
		itemMutations:  newCounter(reg, "menubuilder_item_mutations_total", "Item mutations by operation.", "op"),
		requests:       newCounter(reg, "menubuilder_http_requests_total", "HTTP requests by method and status.", "method", "status"),
		watchers:       newGauge(reg, "menubuilder_watchers", "Open websocket change feeds."),
		gatherer:       reg,
	}
}

func newGauge(reg prometheus.Registerer, name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	reg.MustRegister(g)
	return g
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{DisableCompression: true})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts and logs every request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
