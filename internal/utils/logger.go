package utils

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// LogLevel represents different logging levels
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	DISABLED
)

// String returns the string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case DISABLED:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// Logger provides leveled logging tagged with a component name
type Logger struct {
	level int32 // atomic access
}

var globalLogger *Logger

func init() {
	globalLogger = &Logger{level: int32(INFO)}

	// Set default level from environment
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		globalLogger.SetLevel(DEBUG)
	case "INFO":
		globalLogger.SetLevel(INFO)
	case "WARN":
		globalLogger.SetLevel(WARN)
	case "ERROR":
		globalLogger.SetLevel(ERROR)
	case "DISABLED":
		globalLogger.SetLevel(DISABLED)
	}
}

// SetLevel sets the minimum level that will be emitted
func (l *Logger) SetLevel(level LogLevel) {
	atomic.StoreInt32(&l.level, int32(level))
}

// Level returns the current minimum level
func (l *Logger) Level() LogLevel {
	return LogLevel(atomic.LoadInt32(&l.level))
}

func (l *Logger) logf(level LogLevel, component, message string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	formatted := message
	if len(args) > 0 {
		formatted = fmt.Sprintf(message, args...)
	}
	log.Printf("[%s] [%s] %s", level.String(), component, formatted)
}

// SetGlobalLevel sets the level of the process-wide logger
func SetGlobalLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

// Convenience functions for common logging patterns
func LogDebug(component, message string, args ...interface{}) {
	globalLogger.logf(DEBUG, component, message, args...)
}

func LogInfo(component, message string, args ...interface{}) {
	globalLogger.logf(INFO, component, message, args...)
}

func LogWarn(component, message string, args ...interface{}) {
	globalLogger.logf(WARN, component, message, args...)
}

func LogError(component, message string, args ...interface{}) {
	globalLogger.logf(ERROR, component, message, args...)
}
