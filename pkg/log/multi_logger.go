package log

// MultiLogger fans every event out to a set of sinks, typically a FileLogger
// capture next to a SlogAdapter for live console output.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines the given loggers into one.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{sinks: loggers}
}

// Log hands the event to every sink in registration order.
func (m *MultiLogger) Log(event Event) {
	for _, sink := range m.sinks {
		sink.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
