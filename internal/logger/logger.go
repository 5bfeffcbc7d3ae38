// Package logger holds the user-facing notification feed and configures the
// process log. Notifications are kept in a bounded in-memory ring and shown
// in the dashboard status bar; the process log goes to stderr and a rotating
// file.
package logger

import (
	"io"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels used by the status bar.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message represents a single notification
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Level     string    `json:"level"`
}

// Logger manages in-memory notifications
type Logger struct {
	mu       sync.RWMutex
	messages []Message
	maxSize  int
}

// New creates a new logger with specified max message count
func New(maxSize int) *Logger {
	return &Logger{
		messages: make([]Message, 0, maxSize),
		maxSize:  maxSize,
	}
}

// Log adds a new message to the feed and mirrors it to the process log.
func (l *Logger) Log(level, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := Message{
		Timestamp: time.Now(),
		Text:      text,
		Level:     level,
	}

	l.messages = append(l.messages, msg)

	// Keep only the last maxSize messages
	if len(l.messages) > l.maxSize {
		l.messages = l.messages[len(l.messages)-l.maxSize:]
	}

	log.Printf("[%s] %s", level, text)
}

// Info logs an info-level message
func (l *Logger) Info(text string) {
	l.Log(LevelInfo, text)
}

// Success logs the outcome of a completed user action
func (l *Logger) Success(text string) {
	l.Log(LevelSuccess, text)
}

// Warning logs a warning-level message
func (l *Logger) Warning(text string) {
	l.Log(LevelWarning, text)
}

// Error logs an error-level message
func (l *Logger) Error(text string) {
	l.Log(LevelError, text)
}

// GetRecent returns the most recent n messages (newest first)
func (l *Logger) GetRecent(n int) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > len(l.messages) {
		n = len(l.messages)
	}

	result := make([]Message, n)
	for i := 0; i < n; i++ {
		result[i] = l.messages[len(l.messages)-1-i]
	}

	return result
}

// Latest returns the newest message, if any.
func (l *Logger) Latest() (Message, bool) {
	recent := l.GetRecent(1)
	if len(recent) == 0 {
		return Message{}, false
	}
	return recent[0], true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FileOptions controls the rotating process log.
type FileOptions struct {
	Path      string
	MaxSizeMB int
	MaxAgeDay int
}

// SetupProcessLog sends the standard logger to stderr and, when a path is
// configured, to a lumberjack-rotated file. The returned closer releases the
// file.
func SetupProcessLog(opts FileOptions) io.Closer {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if opts.Path == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename: opts.Path,
		MaxSize:  opts.MaxSizeMB, // megabytes
		MaxAge:   opts.MaxAgeDay, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return file
}
