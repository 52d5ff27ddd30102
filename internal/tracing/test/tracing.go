// Package test provides a tracer that records nothing, for use in tests
package test

import (
	"context"

	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a no-op tracer
func Tracer(log *logger.Logger) *tracing.Tracer {
	tp := trace.NewNoopTracerProvider()
	return &tracing.Tracer{
		ServiceName:    "test",
		Log:            log,
		TracerProvider: tp,
		ShutdownFunc: func(context.Context) error {
			return nil
		},
		TracerInstance: tp.Tracer("test"),
	}
}
