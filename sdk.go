package fn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/cloudevent"
)

// Run is the meat and potatoes. This is the entrypoint for everything. The
// user config is loaded once, then handed to newCatalogFn to build the
// targets to serve.
func Run[T Cfg](ctx context.Context, newCatalogFn func(context.Context, *slog.Logger, T) *catalog.Catalog) {
	run(ctx, func(ctx context.Context, logger *slog.Logger, settings Settings) (*Runtime, error) {
		cfg, err := readCfg[T](ctx)
		if err != nil {
			return nil, err
		}

		return NewRuntime(logger, newCatalogFn(ctx, logger, cfg), settings)
	})
}

// Runtime wires a catalog to the HTTP controller and, when enabled, the
// supplier exporter.
type Runtime struct {
	logger     *slog.Logger
	settings   Settings
	controller *Controller
	exporter   *Exporter
	sink       Sink
}

// NewRuntime creates the runtime of cat. The exporter is only created when
// the export is enabled in the settings.
func NewRuntime(logger *slog.Logger, cat FunctionCatalog, settings Settings) (*Runtime, error) {
	rt := &Runtime{
		logger:   logger,
		settings: settings,
		controller: NewController(logger, cat,
			WithProvider(cloudevent.NewProvider(settings.ProviderConfig())),
			WithDebug(settings.Debug),
		),
	}

	if settings.Export.Enabled {
		sink, err := NewSink(settings.Export)
		if err != nil {
			return nil, fmt.Errorf("failed to create export sink: %w", err)
		}
		rt.sink = sink
		rt.exporter = NewExporter(logger, cat, sink, settings.Export)
	}

	return rt, nil
}

// Exporter returns the supplier exporter, nil when the export is disabled.
func (rt *Runtime) Exporter() *Exporter {
	return rt.exporter
}

// Handler serves the targets at "/", prometheus metrics at "/metrics" and the
// exporter health at "/health".
func (rt *Runtime) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", recoverer(rt.logger)(rt.controller))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", rt.health)

	if len(rt.settings.CORS.AllowedOrigins) == 0 {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins: rt.settings.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)
}

// Close stops the exporter and closes its sink.
func (rt *Runtime) Close() error {
	if rt.exporter != nil {
		rt.exporter.Stop()
	}
	if rt.sink != nil {
		return rt.sink.Close()
	}
	return nil
}

func (rt *Runtime) health(w http.ResponseWriter, _ *http.Request) {
	status, code := "UP", http.StatusOK
	if rt.exporter != nil && !rt.exporter.IsOK() {
		status, code = "DOWN", http.StatusServiceUnavailable
	}

	b, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		rt.logger.Error("failed to marshal health", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		rt.logger.Error("failed to write health response", "err", err)
	}
}

func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic caught", "stack_trace", string(debug.Stack()))
					writeErrResp(logger, w, APIError{Code: http.StatusServiceUnavailable, Message: "encountered unexpected error"})
				}
			}()

			h.ServeHTTP(w, r)
		})
	}
}
