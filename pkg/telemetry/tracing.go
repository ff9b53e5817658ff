package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
)

// DefaultTracerName is the instrumentation name used when none is given.
const DefaultTracerName = "github.com/vango-dev/kinetic"

// TracingConfig configures Tracer.
type TracingConfig struct {
	// TracerName is the instrumentation name (default: DefaultTracerName).
	TracerName string

	// Provider supplies the tracer. Default: the global otel provider.
	Provider trace.TracerProvider
}

// TracingOption configures Tracer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the provider the tracer is taken from.
func WithTracerProvider(p trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = p
	}
}

// Tracer returns the tracer the runtime packages should share.
func Tracer(opts ...TracingOption) trace.Tracer {
	config := TracingConfig{TracerName: DefaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	if config.TracerName == "" {
		config.TracerName = DefaultTracerName
	}
	return config.Provider.Tracer(config.TracerName)
}

// RecordError marks span as failed. Structured errors also set the
// kinetic.error.code attribute.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := kerrors.Code(err); code != "" {
		span.SetAttributes(attribute.String("kinetic.error.code", code))
	}
}
