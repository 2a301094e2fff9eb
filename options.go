package redlock

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// CustodianOptions defines the options for custodian configuration
type CustodianOptions struct {
	// Logger receives contention, release and store failure events
	Logger Logger

	// Scheduler paces spin retries
	Scheduler Scheduler

	// Registerer enables Prometheus metrics when non-nil
	Registerer prometheus.Registerer

	// TracerProvider supplies the tracer used for operation spans
	TracerProvider trace.TracerProvider
}

// Option is a function type for setting custodian options
type Option func(*CustodianOptions)

// WithLogger sets the logger
func WithLogger(logger Logger) Option {
	return func(o *CustodianOptions) {
		o.Logger = logger
	}
}

// WithScheduler sets the scheduler used between spin attempts
func WithScheduler(s Scheduler) Option {
	return func(o *CustodianOptions) {
		o.Scheduler = s
	}
}

// WithMetrics enables Prometheus metrics collection using the provided registerer
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *CustodianOptions) {
		o.Registerer = reg
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *CustodianOptions) {
		o.TracerProvider = tp
	}
}

// defaultOptions returns the default custodian options
func defaultOptions() *CustodianOptions {
	return &CustodianOptions{
		Logger:         newDefaultLogger(),       // stdlib log with level prefixes
		Scheduler:      SystemScheduler{},        // wall clock
		Registerer:     nil,                      // metrics disabled by default
		TracerProvider: otel.GetTracerProvider(), // global provider
	}
}
