package logger

// Logger is the logging surface used across the dispatcher. The default implementation
// writes through glog so verbosity and output destinations follow the glog flags.
type Logger interface {
	// Debug level logging
	Debugf(msg string, args ...any)

	// Info level logging
	Infof(msg string, args ...any)

	// Warn level logging
	Warnf(msg string, args ...any)

	// Error level logging
	Errorf(msg string, args ...any)
}
