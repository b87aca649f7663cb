package ports

import "strings"

// LogLevel orders log severities. Messages below a logger's level are
// dropped; LevelQuiet drops everything.
type LogLevel int

const (
	// LevelDebug carries per-component detail such as decoder selection
	// and skipped packets.
	LevelDebug LogLevel = iota
	// LevelInfo carries pipeline progress.
	LevelInfo
	LevelWarn
	LevelError
	LevelQuiet
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel maps a level name to its LogLevel. Unknown names yield
// LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Logger is the logging port. Message strings double as lexicon keys, so
// callers pass a constant format and the arguments separately.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with
	// "[component] ".
	WithComponent(component string) Logger
}
