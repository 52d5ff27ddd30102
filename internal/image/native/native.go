package native

import (
	"context"
	"errors"
	"expvar"
	"fmt"

	"github.com/visualright/filterlab/internal/cache"
	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/image"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/queue"
	"github.com/visualright/filterlab/internal/raster"
	"github.com/visualright/filterlab/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	queueSize       = expvar.NewInt("gauge_image_processor_queue_size")
	processedImages = expvar.NewMap("counter_labelmap_format_image_processor_processed_images")
	processorErrors = expvar.NewInt("counter_image_processor_errors")
)

// Processor is an image processor that runs filter chains in pure Go
type Processor struct {
	queue   *queue.Queue[*job, []byte]
	results cache.Provider
	log     *logger.Logger
	tracer  *tracing.Tracer
}

// A job either loads its source through the cache by id, or carries uploaded data
type job struct {
	task   *image.Task
	upload []byte
}

// New initializes a new processor instance
// Source images with more than maxPixels pixels are rejected, results are memoised in results unless it is nil
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, workers int, maxPixels int, sources *image.Cache, results cache.Provider) *Processor {
	workerQueue := queue.New(ctx, workers, taskProcessor(tracer, maxPixels, sources))
	instance := &Processor{
		queue:   workerQueue,
		results: results,
		log:     log,
		tracer:  tracer,
	}

	go workerQueue.Run()
	log.Infof("starting image worker queue with %d workers", workers)

	return instance
}

// ProcessImage loads a source image, runs the task's chain on it, and returns a buffer containing the encoded result
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "native.ProcessImage", trace.WithAttributes(
		attribute.String("image.id", task.ImageID),
		attribute.String("image.chain", task.Chain.String()),
	))
	defer span.End()

	key := task.Key()
	memoise := p.results != nil && task.Chain.Deterministic()
	if memoise {
		processedImage, err = p.results.Get(ctx, key)
		if err == nil {
			span.SetAttributes(attribute.Bool("result.cached", true))
			return processedImage, nil
		}

		if !errors.Is(err, cache.ErrNotFound) {
			p.log.Warnf("error reading result cache: %s", err)
		}
	}

	processedImage, err = p.process(ctx, &job{task: task})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if memoise {
		if err := p.results.Set(ctx, key, processedImage); err != nil {
			p.log.Warnf("error writing result cache: %s", err)
		}
	}

	return processedImage, nil
}

// ProcessUpload decodes caller supplied image data, runs the chain on it, and returns the encoded result
func (p *Processor) ProcessUpload(ctx context.Context, data []byte, chain filter.Chain, format raster.Format) (processedImage []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "native.ProcessUpload", trace.WithAttributes(
		attribute.Int("upload.size", len(data)),
		attribute.String("image.chain", chain.String()),
	))
	defer span.End()

	task := image.NewTask("", "", format).Filter(chain)
	processedImage, err = p.process(ctx, &job{task: task, upload: data})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return processedImage, nil
}

func (p *Processor) process(ctx context.Context, j *job) ([]byte, error) {
	queueSize.Add(1)
	defer queueSize.Add(-1)

	result, err := p.queue.Process(ctx, j)
	if err != nil {
		processorErrors.Add(1)
		return nil, err
	}

	processedImages.Add(j.task.OutputFormat.String(), 1)
	return result, nil
}

func taskProcessor(tracer *tracing.Tracer, maxPixels int, sources *image.Cache) queue.HandlerFunc[*job, []byte] {
	return func(ctx context.Context, j *job) ([]byte, error) {
		ctx, span := tracer.Start(ctx, "native.taskProcessor")
		defer span.End()

		task := j.task

		data := j.upload
		if data == nil {
			var err error
			data, err = sources.Get(ctx, task.ImageID)
			if err != nil {
				return nil, fmt.Errorf("error getting image from cache: %w", err)
			}
		}

		// Decoders allocate from the declared size, so check it before decoding
		config, err := raster.DecodeConfig(data)
		if err != nil {
			return nil, err
		}

		if exceedsPixels(config.Width, config.Height, maxPixels) {
			return nil, image.ErrTooLarge
		}

		src, err := raster.DecodeBytes(data)
		if err != nil {
			return nil, err
		}

		bounds := src.Bounds()

		_, filterSpan := tracer.Start(ctx, "native.filter", trace.WithAttributes(attribute.Int("image.width", bounds.Dx()), attribute.Int("image.height", bounds.Dy())))
		processed, err := task.Chain.Apply(src)
		filterSpan.End()
		if err != nil {
			return nil, err
		}

		buffer, err := raster.EncodeBytes(processed, task.OutputFormat)
		if err != nil {
			return nil, err
		}

		return raster.SetComment(buffer, task.OutputFormat, task.UserComment)
	}
}

// exceedsPixels reports whether width*height is above maxPixels, without overflowing
func exceedsPixels(width, height, maxPixels int) bool {
	if maxPixels <= 0 || width <= 0 || height <= 0 {
		return false
	}

	return width > maxPixels/height
}
