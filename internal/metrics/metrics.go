package metrics

import (
	"context"
	"net/http"
	"net/http/pprof"

	"github.com/visualright/filterlab/internal/handler"
	"github.com/visualright/filterlab/internal/health"
	"github.com/visualright/filterlab/internal/logger"
	"tailscale.com/tsweb"
)

// Router returns the routes served on the metrics listener
func Router(healthChecker *health.Checker) http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("/metrics", tsweb.VarzHandler)
	router.Handle("/health", handler.Health(healthChecker))

	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return router
}

// Serve starts an http server for metrics, profiling and healthchecks, and blocks until the context is cancelled
func Serve(ctx context.Context, log *logger.Logger, healthChecker *health.Checker, listenAddress string) {
	server := &http.Server{
		Addr:     listenAddress,
		Handler:  Router(healthChecker),
		ErrorLog: logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("error serving metrics: %s", err)
		}
	}()

	log.Infof("metrics http server listening on %s", listenAddress)

	<-ctx.Done()

	if err := server.Close(); err != nil {
		log.Warnf("error shutting down metrics http server: %s", err)
	}
}
