package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/visualright/filterlab/internal/catalog"
	"github.com/visualright/filterlab/internal/handler"
	"github.com/visualright/filterlab/internal/health"
	"github.com/visualright/filterlab/internal/hmac"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/tracing"
)

// API is the catalog http api, it lists source images and kernels and redirects image requests to the image service
type API struct {
	Catalog         catalog.Provider
	Kernels         *kernel.Registry
	HealthChecker   *health.Checker
	Log             *logger.Logger
	Tracer          *tracing.Tracer
	RootURL         string
	ImageServiceURL string
	HandlerTimeout  time.Duration
	HMAC            *hmac.HMAC
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Path variable patterns, ids and seeds can't contain dots so that the extension can be split off
const (
	idPattern        = "{id:[^/.]+}"
	seedPattern      = "{seed:[^/.]+}"
	extensionPattern = "{extension:(?:\\.[A-Za-z]+)?}"
)

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")

	// Image list
	router.Handle("/v1/list", handler.Handler(a.listHandler)).Methods("GET")

	// Query parameters:
	// ?page={page} - What page to display
	// ?limit={limit} - How many entries to display per page

	// Kernel presets
	router.Handle("/v1/kernels", handler.Handler(a.kernelsHandler)).Methods("GET")

	// Image info
	router.Handle("/id/"+idPattern+"/info", handler.Handler(a.infoHandler)).Methods("GET")

	// Image routes
	router.Handle("/id/"+idPattern+extensionPattern, handler.Handler(a.imageRedirectHandler)).Methods("GET")
	router.Handle("/seed/"+seedPattern+extensionPattern, handler.Handler(a.seedImageRedirectHandler)).Methods("GET")
	router.Handle("/random"+extensionPattern, handler.Handler(a.randomImageRedirectHandler)).Methods("GET")

	// Query parameters:
	// ?kernel={preset or matrix} - Convolve the image, can be repeated
	// ?brightness={-255..255}
	// ?contrast={0..10}
	// ?noise={0..255}
	// ?seed={noise seed}
	// ?grayscale

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, tracing, metrics, setting CORS headers, and handler execution timeout
	return handler.AddRequestID(
		handler.Recovery(a.Log,
			handler.Logger(a.Log,
				handler.Tracer(a.Tracer,
					handler.Metrics(
						handler.CORS([]string{"GET"}, []string{"Link"},
							http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out."),
						),
						routeMatcher,
					),
					routeMatcher,
				),
			),
		),
	)
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return handler.NotFound("page not found")
}
