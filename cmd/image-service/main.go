package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/visualright/filterlab/internal/cache"
	"github.com/visualright/filterlab/internal/cache/memory"
	"github.com/visualright/filterlab/internal/cache/redis"
	"github.com/visualright/filterlab/internal/cmd"
	"github.com/visualright/filterlab/internal/health"
	"github.com/visualright/filterlab/internal/hmac"
	"github.com/visualright/filterlab/internal/image"
	"github.com/visualright/filterlab/internal/image/native"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/metrics"
	"github.com/visualright/filterlab/internal/storage"
	fileStorage "github.com/visualright/filterlab/internal/storage/file"
	"github.com/visualright/filterlab/internal/storage/spaces"
	"github.com/visualright/filterlab/internal/tracing"

	api "github.com/visualright/filterlab/internal/imageapi"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8081", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8083", "metrics listen address")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Processing
	workers        = flag.Int("workers", runtime.NumCPU(), "number of images to process concurrently")
	maxPixels      = flag.Int("max-pixels", 50_000_000, "largest source image to process, in pixels (0 for no limit)")
	maxUploadBytes = flag.Int64("max-upload-bytes", api.DefaultMaxUploadBytes, "largest accepted upload body, in bytes")

	// Kernels
	kernelsFilePath = flag.String("kernels-file-path", "", "path to a yaml file with custom kernel presets")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./test/fixtures/file", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace     = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint  = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesRegion    = flag.String("storage-spaces-region", "", "spaces region")
	storageSpacesAccessKey = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesPrefix    = flag.String("storage-spaces-prefix", "", "folder in the space that holds the source images")
	storageSpacesPathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers")

	// Cache
	cacheBackend       = flag.String("cache", "memory", "which cache backend to use (memory, redis)")
	cacheResults       = flag.Bool("cache-results", true, "also cache processed images")
	cacheMemoryMaxSize = flag.Int("cache-memory-max-bytes", 256<<20, "size limit of the memory cache, in bytes")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "127.0.0.1:6379", "redis address")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long cached objects are kept in redis (0 to keep them forever)")

	// Tracing
	tracingSampleRatio = flag.Float64("tracing-sample-ratio", 0.01, "ratio of new traces to sample")

	// Healthcheck
	healthCheckImageID = flag.String("health-check-image-id", "1", "image ID to request from the storage to check storage health")

	// HMAC
	hmacKey = flag.String("hmac-key", "", "hmac key to use for authentication between services")
)

func main() {
	// Parse environment variables
	envy.Parse("IMAGE")

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
	tracer, err := tracing.New(shutdownCtx, log, "image-service", *tracingSampleRatio)
	if err != nil {
		log.Fatalf("error initializing tracing: %s", err)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the storage, cache
	storageProvider, cacheProvider, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cacheProvider.Shutdown()

	kernels, err := loadKernels()
	if err != nil {
		log.Fatalf("error loading kernel presets: %s", err)
	}

	mac, err := hmac.New(*hmacKey)
	if err != nil {
		log.Fatalf("error initializing hmac: %s", err)
	}

	// Initialize the image processor
	imageProcessorCtx, imageProcessorCancel := context.WithCancel(context.Background())
	defer imageProcessorCancel()

	var results cache.Provider
	if *cacheResults {
		results = cacheProvider
	}

	imageProcessor := native.New(imageProcessorCtx, log, tracer, *workers, *maxPixels, image.NewCache(tracer, cacheProvider, storageProvider), results)

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:     checkerCtx,
		Storage: storageProvider,
		ImageID: *healthCheckImageID,
		Cache:   cacheProvider,
		Log:     log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, checker, *metricsListen)

	// Start and listen on http
	api := &api.API{
		ImageProcessor: imageProcessor,
		Kernels:        kernels,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		HandlerTimeout: cmd.HandlerTimeout,
		HMAC:           mac,
		MaxUploadBytes: *maxUploadBytes,
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

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider, err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(ctx, spaces.Config{
			Space:          *storageSpacesSpace,
			Endpoint:       *storageSpacesEndpoint,
			Region:         *storageSpacesRegion,
			AccessKey:      *storageSpacesAccessKey,
			SecretKey:      *storageSpacesSecretKey,
			Prefix:         *storageSpacesPrefix,
			ForcePathStyle: *storageSpacesPathStyle,
		})
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "memory":
		cache = memory.New(*cacheMemoryMaxSize)
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}

func loadKernels() (*kernel.Registry, error) {
	if *kernelsFilePath == "" {
		return kernel.NewRegistry()
	}

	return kernel.LoadRegistry(*kernelsFilePath)
}
