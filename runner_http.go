package fn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"
)

func runHTTP(ctx context.Context, newRuntimeFn func(context.Context, *slog.Logger, Settings) (*Runtime, error)) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))

	settings, err := LoadSettings()
	if err != nil {
		logger.Error("failed to load settings", "err", err)
		return
	}

	rt, err := newRuntimeFn(ctx, logger, settings)
	if err != nil {
		logger.Error("failed to create runtime", "err", err)
		return
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("failed to close runtime", "err", err)
		}
	}()

	if exp := rt.Exporter(); exp != nil && settings.Export.AutoStartup {
		exp.Start(ctx)
	}

	s := &http.Server{
		Addr:           fmt.Sprintf(":%d", settings.Port),
		Handler:        rt.Handler(),
		MaxHeaderBytes: mb,
	}
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("shutting down HTTP server...")
		if err := s.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", "err", err)
		}
	}()

	logger.Info("serving HTTP server on port " + strconv.Itoa(settings.Port))
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("unexpected shutdown of server", "err", err)
	}
}
