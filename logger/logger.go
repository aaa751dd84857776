package logger

var logger Logger = NewGlogLogger()

// Default returns the process-wide logger.
func Default() Logger {
	return logger
}

// SetDefault replaces the process-wide logger. It must be called before any goroutine logs.
func SetDefault(l Logger) {
	if l != nil {
		logger = l
	}
}

// Debug level logging
func Debugf(msg string, args ...any) {
	logger.Debugf(msg, args...)
}

// Info level logging
func Infof(msg string, args ...any) {
	logger.Infof(msg, args...)
}

// Warn level logging
func Warnf(msg string, args ...any) {
	logger.Warnf(msg, args...)
}

// Error level logging
func Errorf(msg string, args ...any) {
	logger.Errorf(msg, args...)
}
