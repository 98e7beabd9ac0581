package workerpool

// Options configure a worker Pool.
//
// Zero values other than Workers are replaced with defaults in
// FillDefaults. Workers is never defaulted: NewPool rejects a count below
// one with ErrInvalidPoolConfig.
type Options struct {
	Workers int

	// Metrics receives queue and execution counters. Defaults to NoopMetrics.
	Metrics MetricsPolicy

	// OnJobError is called with every error returned by a job or produced
	// by panic recovery.
	OnJobError func(error)

	// OnInternalError is called for failures inside the pool itself.
	OnInternalError func(error)

	// LockOSThread wires each worker goroutine to its own OS thread.
	LockOSThread bool

	// PinWorkers additionally restricts worker i to CPU i modulo NumCPU.
	// Linux only; implies LockOSThread.
	PinWorkers bool
}

func (o *Options) FillDefaults() {
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
	if o.PinWorkers {
		o.LockOSThread = true
	}
}
