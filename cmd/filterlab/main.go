package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/visualright/filterlab/internal/api"
	"github.com/visualright/filterlab/internal/catalog/file"
	"github.com/visualright/filterlab/internal/cmd"
	"github.com/visualright/filterlab/internal/health"
	"github.com/visualright/filterlab/internal/hmac"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/metrics"
	"github.com/visualright/filterlab/internal/tracing"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen          = flag.String("listen", ":8080", "listen address")
	metricsListen   = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	rootURL         = flag.String("root-url", "http://127.0.0.1:8080", "root url")
	imageServiceURL = flag.String("image-service-url", "http://127.0.0.1:8081", "image service url")
	loglevel        = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Catalog
	catalogFilePath = flag.String("catalog-file-path", "./test/fixtures/file/metadata.json", "path to the catalog manifest")

	// Kernels
	kernelsFilePath = flag.String("kernels-file-path", "", "path to a yaml file with custom kernel presets")

	// Tracing
	tracingSampleRatio = flag.Float64("tracing-sample-ratio", 0.01, "ratio of new traces to sample")

	// HMAC
	hmacKey = flag.String("hmac-key", "", "hmac key to use for authentication between services")
)

func main() {
	// Parse environment variables
	envy.Parse("FILTERLAB")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	tracer, err := tracing.New(shutdownCtx, log, "filterlab", *tracingSampleRatio)
	if err != nil {
		log.Fatalf("error initializing tracing: %s", err)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the catalog and kernel presets
	catalog, err := file.New(*catalogFilePath)
	if err != nil {
		log.Fatalf("error initializing catalog: %s", err)
	}
	defer catalog.Shutdown()

	kernels, err := loadKernels()
	if err != nil {
		log.Fatalf("error loading kernel presets: %s", err)
	}

	mac, err := hmac.New(*hmacKey)
	if err != nil {
		log.Fatalf("error initializing hmac: %s", err)
	}

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:     checkerCtx,
		Catalog: catalog,
		Log:     log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, checker, *metricsListen)

	// Start and listen on http
	api := &api.API{
		Catalog:         catalog,
		Kernels:         kernels,
		HealthChecker:   checker,
		Log:             log,
		Tracer:          tracer,
		RootURL:         *rootURL,
		ImageServiceURL: *imageServiceURL,
		HandlerTimeout:  cmd.HandlerTimeout,
		HMAC:            mac,
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	serverCtx, serverCancel := context.WithTimeout(context.Background(), cmd.WriteTimeout)
	defer serverCancel()
	if err := server.Shutdown(serverCtx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}
}

func loadKernels() (*kernel.Registry, error) {
	if *kernelsFilePath == "" {
		return kernel.NewRegistry()
	}

	return kernel.LoadRegistry(*kernelsFilePath)
}
