// Package workerpool provides a two-tier priority channel and a fixed-size
// worker pool built on it.
//
// Channel
//
// NewChannel returns a connected Sender and Receiver. Any number of clones
// of either end may be used from any goroutine. Items sent with urgent set
// go to the front of the queue, all others to the back:
//
//   - normal items are received in the order they were sent
//   - an urgent item is received before everything queued at the time
//   - several urgent items sent back to back come out newest first
//
// Recv blocks while the queue is empty and a sender is alive. Once every
// sender is closed, receivers drain what is queued and then get
// ErrNoSender. Send fails with ErrNoReceiver when every receiver is
// closed. Close on either end is idempotent.
//
// Pool
//
// A Pool runs Options.Workers goroutines that share one Receiver. Execute
// queues a job and returns; Submit additionally returns a Completion that
// resolves once the job has run, carrying its error and timings.
//
// Shutdown queues one shutdown message per worker at normal priority, so
// every job already queued runs first, including urgent ones. It then
// waits for the workers or for the context to end.
//
// Error handling
//
// The pool distinguishes between two classes of errors:
//
//   - Job errors: returned by job functions or produced by panic recovery
//   - Internal errors: unexpected failures inside the pool itself
//
// Errors are reported via user-provided handlers and do not stop
// worker execution. Panics inside jobs are recovered to prevent
// worker termination.
//
// CPU pinning
//
// On Linux, workers may optionally be pinned to specific CPUs.
// When enabled, workers are locked to OS threads and restricted
// to run on a single CPU core.
package workerpool
