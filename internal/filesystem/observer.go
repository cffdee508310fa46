package filesystem

// Observer records retry metrics for filesystem operations. The metrics
// package provides the implementation; the indirection lets it import
// filesystem without creating a cycle.
type Observer interface {
	// RetryAttempt records that an operation is about to be retried.
	// op is the operation type: "stat", "open", "readdir".
	RetryAttempt(op, volume string)
	// RetrySuccess records an operation that succeeded after retrying.
	RetrySuccess(op, volume string)
	// RetryFailure records an operation that failed all its attempts.
	RetryFailure(op, volume string)
	// RetryDuration records the total wall time of an operation.
	RetryDuration(op, volume string, seconds float64)
	// StaleError records one ESTALE occurrence.
	StaleError(op, volume string)
}

type noopObserver struct{}

func (noopObserver) RetryAttempt(string, string)           {}
func (noopObserver) RetrySuccess(string, string)           {}
func (noopObserver) RetryFailure(string, string)           {}
func (noopObserver) RetryDuration(string, string, float64) {}
func (noopObserver) StaleError(string, string)             {}

// observer is the package-level metrics observer. The no-op default keeps
// tests and tools free of metric side effects.
var observer Observer = noopObserver{}

// SetObserver installs the metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	if o != nil {
		observer = o
	}
}
