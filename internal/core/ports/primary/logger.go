package primary

// Logger is the structured logger every service and adapter logs through.
// Arguments after msg are alternating keys and values.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	With(args ...interface{}) Logger
}
