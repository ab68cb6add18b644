package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

var levelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// ParseLevel converts a configured level string to a LogLevel, defaulting
// to INFO for unknown values
func ParseLevel(s string) LogLevel {
	switch LogLevel(s) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return LogLevel(s)
	default:
		return LogLevelInfo
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time
	Level     LogLevel
	Component string
	AccountID string
	Message   string
	Err       error
}

// Logger provides structured logging for one component
type Logger struct {
	component string
	mu        *sync.Mutex
	minLevel  LogLevel
	outputs   []io.Writer
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		mu:        &sync.Mutex{},
		minLevel:  LogLevelInfo,
		outputs:   []io.Writer{os.Stdout},
	}
}

// SetMinLevel sets the minimum log level to output
func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

// AddOutput adds an output writer for logs
func (l *Logger) AddOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, w)
	return l
}

// WithComponent derives a logger for a sub-component sharing outputs and
// level configuration
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		component: component,
		mu:        l.mu,
		minLevel:  l.minLevel,
		outputs:   l.outputs,
	}
}

func (l *Logger) log(level LogLevel, accountID, message string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		AccountID: accountID,
		Message:   message,
		Err:       err,
	}

	formatted := format(entry)
	for _, output := range l.outputs {
		output.Write([]byte(formatted))
	}
}

// format renders an entry as a single human-readable line
func format(entry Entry) string {
	ts := entry.Timestamp.Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf("[%s] %s [%s]", ts, entry.Level, entry.Component)
	if entry.AccountID != "" {
		msg += fmt.Sprintf(" account=%s", entry.AccountID)
	}
	msg += " " + entry.Message
	if entry.Err != nil {
		msg += fmt.Sprintf(" | error=%v", entry.Err)
	}
	return msg + "\n"
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LogLevelDebug, "", message, nil)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(LogLevelInfo, "", message, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LogLevelWarn, "", message, nil)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(LogLevelError, "", message, err)
}

// AccountInfo logs an info message tagged with an account identifier
func (l *Logger) AccountInfo(accountID, message string) {
	l.log(LogLevelInfo, accountID, message, nil)
}

// AccountWarn logs a warning tagged with an account identifier
func (l *Logger) AccountWarn(accountID, message string) {
	l.log(LogLevelWarn, accountID, message, nil)
}

// AccountError logs an error tagged with an account identifier
func (l *Logger) AccountError(accountID, message string, err error) {
	l.log(LogLevelError, accountID, message, err)
}
