// Package router arma el http.Handler del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	ihttp "github.com/dropDatabas3/tokensmith/internal/http"
	ctrl "github.com/dropDatabas3/tokensmith/internal/http/controllers/oauth"
	mw "github.com/dropDatabas3/tokensmith/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Token    *ctrl.TokenController
	Registry prometheus.Registerer // nil = default registry
}

// New construye el router con el token endpoint y los endpoints operativos.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	metricsHandler := ihttp.RegisterMetrics(deps.Registry)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// POST /oauth2/token - Token endpoint (RFC 6749)
	r.Method(http.MethodPost, "/oauth2/token", tokenHandler(deps.Token))

	return r
}

// tokenHandler crea el middleware chain para el token endpoint.
func tokenHandler(c *ctrl.TokenController) http.Handler {
	return mw.Chain(http.HandlerFunc(c.Token),
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
		mw.WithMetrics(),
		mw.WithLogging(),
	)
}
