package fn

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/dsyer/spring-cloud-function/catalog"
)

// TestRun builds the runtime of the catalog in order to test it through the
// HTTP runner without listening on a port. The export is never started.
func TestRun[T Cfg](ctx context.Context, settings Settings, cfg T, newCatalogFn func(context.Context, *slog.Logger, T) *catalog.Catalog) http.Handler {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{}))

	settings.Export.Enabled = false
	rt, err := NewRuntime(logger, newCatalogFn(ctx, logger, cfg), settings)
	if err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeErrResp(logger, w, APIError{Code: http.StatusInternalServerError, Message: "unable to create runtime: " + err.Error()})
		})
	}
	return rt.Handler()
}
