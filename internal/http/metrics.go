package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/tokensmith/internal/domain"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	tokenExchangesTotal *prometheus.CounterVec
)

// RegisterMetrics inicializa las métricas y devuelve el handler para /metrics.
func RegisterMetrics(registry prometheus.Registerer) http.Handler {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		tokenExchangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_token_exchanges_total",
			Help: "Intercambios en el token endpoint por grant type y resultado",
		}, []string{"grant_type", "result"})

		registry.MustRegister(httpRequestsTotal, httpRequestDuration, tokenExchangesTotal)
	})

	if g, ok := registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// ObserveRequest registra una request terminada.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveTokenExchange registra un intercambio del token endpoint.
// result es "success" o el error code OAuth2. grant_type viene del body del
// request: todo lo que no esté en el set cerrado colapsa a "unknown" para
// que la cardinalidad del label quede acotada.
func ObserveTokenExchange(grantType, result string) {
	if tokenExchangesTotal == nil {
		return
	}
	if _, ok := domain.ParseGrantType(grantType); !ok {
		grantType = "unknown"
	}
	tokenExchangesTotal.WithLabelValues(grantType, result).Inc()
}
