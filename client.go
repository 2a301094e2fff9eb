package redlock

import (
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/huimingz/redlock"

// Custodian acquires, spins for and releases locks held in a Store.
//
// A Custodian keeps no per-lock state; ownership lives entirely in the
// store as a key/token pair. It is safe for concurrent use.
type Custodian struct {
	store     Store
	scheduler Scheduler
	logger    Logger
	metrics   *metrics
	tracer    trace.Tracer
}

// NewCustodian creates a new custodian backed by store
func NewCustodian(store Store, opts ...Option) *Custodian {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Custodian{
		store:     store,
		scheduler: options.Scheduler,
		logger:    options.Logger,
		metrics:   newMetrics(options.Registerer),
		tracer:    options.TracerProvider.Tracer(tracerName),
	}
}
