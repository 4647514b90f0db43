package core

// Logger is the application-wide structured logger.
// Implementations may ship entries to an external tracker (see services/logger).
//
// expected args: error, map[string]interface{}, Actor
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
