package dedupe

// Option applies a configuration option to the file-backed ledger.
type Option func(*fileLedger)

// WithFileLock enables or disables the process-level file lock guarding the
// ledger. Disabling it is only safe when runs are sequential by
// construction, e.g. single-shot CLI invocations.
func WithFileLock(enabled bool) Option {
	return func(l *fileLedger) {
		l.useLock = enabled
	}
}
