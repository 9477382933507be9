package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/shiftopia/shiftopia/pkg/api"
	"github.com/shiftopia/shiftopia/pkg/application"
	"github.com/shiftopia/shiftopia/pkg/configuration"
	"github.com/shiftopia/shiftopia/pkg/constants"
	"github.com/shiftopia/shiftopia/pkg/metrics"
	"github.com/shiftopia/shiftopia/pkg/middleware"
	"github.com/shiftopia/shiftopia/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the HTTP server with the standard middleware stack.
// WithLogger comes first so every later middleware runs inside the
// request span and sees the request logger in context.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.Cors(options.Configuration.AllowedOrigins...),
		middleware.RequestParams(),
	)

	app.RegisterControllers(NewHealthController())
	if options.Configuration.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(options.Configuration.Prometheus.Path))
	}

	return server.NewHTTPServer(
		app,
		apiErrorHandler(http.StatusNotFound, "NOT_FOUND", "resource not found"),
		apiErrorHandler(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed"),
	), nil
}

func apiErrorHandler(status int, code, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(api.APIError{
			Message: message,
			Code:    code,
			Meta:    map[string]string{"path": r.URL.Path},
		})
	})
}

type HealthController struct{}

func NewHealthController() application.Controller {
	return &HealthController{}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
}
