package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/handlers"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/memory"
	"batch-resizer/internal/middleware"
	"batch-resizer/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newHandlers builds the API handlers with the configured execution backend.
func newHandlers(config *startup.Config, monitor *memory.Monitor) (*handlers.Handlers, error) {
	backend, err := batch.NewBackend(config.Backend)
	if err != nil {
		return nil, err
	}
	h := handlers.New(config, monitor)
	h.SetBackend(backend)
	return h, nil
}

func serveCommand() int {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return exitUsage
	}

	startup.ConfigureMemory(config)

	if config.VipsEnabled {
		err := initVips()
		startup.LogVipsInit(true, err)
		defer shutdownVips()
	} else {
		startup.LogVipsInit(false, nil)
	}

	setupMetrics(map[string]string{
		"input":  config.RootDir,
		"output": config.OutputDir,
	})

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	h, err := newHandlers(config, monitor)
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return exitUsage
	}
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	// No write timeout: synchronous batches can run for minutes.
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serverErr:
		monitor.Stop()
		if !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server error: %v", err)
			return exitFailed
		}
		return exitOK
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	}

	shutdown(srv, monitor, h, config.ShutdownTimeout)
	return exitOK
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if config.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	api.HandleFunc("/batch", h.RunBatch).Methods("POST")
	api.HandleFunc("/batch/stream", h.StreamBatch).Methods("POST")
	api.HandleFunc("/validate", h.ValidateFiles).Methods("POST")
	api.HandleFunc("/info", h.GetInfo).Methods("GET")
	api.HandleFunc("/formats", h.GetFormats).Methods("GET")

	return r
}

// shutdown stops accepting requests and waits for running batches up to
// timeout. Batches still running after that are cancelled through their
// request contexts.
func shutdown(srv *http.Server, monitor *memory.Monitor, h *handlers.Handlers, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if n := h.ActiveBatches(); n > 0 {
		logging.Info("  Waiting for %d running batch(es)", n)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
		if err := srv.Close(); err != nil {
			logging.Warn("Server close error: %v", err)
		}
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownComplete()
}
