package workerpool

// reportInternalError reports an internal pool error.
//
// Internal errors are non-job-related failures such as
// worker setup issues or an unexpected channel failure.
// If no handler is registered, the error is only logged.
func (p *Pool) reportInternalError(e error) {
	if p.opts.OnInternalError != nil {
		p.opts.OnInternalError(e)
	}
}

// reportJobError reports an error returned by a job or
// produced by panic recovery.
//
// Job errors do not stop pool execution.
func (p *Pool) reportJobError(err error) {
	if p.opts.OnJobError != nil {
		p.opts.OnJobError(err)
	}
}
