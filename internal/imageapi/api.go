package imageapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/visualright/filterlab/internal/handler"
	"github.com/visualright/filterlab/internal/health"
	"github.com/visualright/filterlab/internal/hmac"
	"github.com/visualright/filterlab/internal/image"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/tracing"
)

// DefaultMaxUploadBytes is the largest accepted upload body
const DefaultMaxUploadBytes = 10 << 20

// IDHeader names the source image of a response
const IDHeader = "Filterlab-Id"

// API is the image service http api
type API struct {
	ImageProcessor image.Processor
	Kernels        *kernel.Registry
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	HandlerTimeout time.Duration
	HMAC           *hmac.HMAC
	MaxUploadBytes int64 // Falls back to DefaultMaxUploadBytes when zero
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")

	// Image by ID, the catalog api redirects here with a signed url
	router.Handle("/id/{id:[^/.]+}{extension:\\.[A-Za-z]+}", handler.Handler(a.imageHandler)).Methods("GET")

	// Filters for an uploaded image, the request body is the image
	router.Handle("/v1/process{extension:(?:\\.[A-Za-z]+)?}", handler.Handler(a.uploadHandler)).Methods("POST")

	// Query parameters:
	// ?kernel={preset or matrix} - Convolve the image, can be repeated
	// ?brightness={-255..255}
	// ?contrast={0..10}
	// ?noise={0..255}
	// ?seed={noise seed}
	// ?grayscale

	// ?hmac - HMAC signature of the path and URL parameters, only for images by ID

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, tracing, metrics, setting CORS headers, and handler execution timeout
	return handler.AddRequestID(
		handler.Recovery(a.Log,
			handler.Logger(a.Log,
				handler.Tracer(a.Tracer,
					handler.Metrics(
						handler.CORS([]string{"GET", "POST"}, []string{IDHeader},
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
