// Package notify delivers user-visible notices raised by the chat client.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/pkg/logger"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// Error is shorthand for an error notice.
func Error(n Notifier, message string) {
	n.Notify(LevelError, message)
}

// Success is shorthand for a success notice.
func Success(n Notifier, message string) {
	n.Notify(LevelSuccess, message)
}

// Writer prints notices as lines on an io.Writer and mirrors them to the log.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	logger *logger.Logger
}

// NewWriter creates a notifier writing to out.
func NewWriter(out io.Writer, log *logger.Logger) *Writer {
	return &Writer{out: out, logger: log}
}

// Notify implements Notifier.
func (w *Writer) Notify(level Level, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := "ok"
	if level == LevelError {
		prefix = "error"
	}
	fmt.Fprintf(w.out, "[%s] %s\n", prefix, message)

	if w.logger != nil {
		w.logger.Debug("notice", zap.String("level", string(level)), zap.String("message", message))
	}
}

// Notice is a recorded notification.
type Notice struct {
	Level   Level
	Message string
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	r.notices = append(r.notices, Notice{Level: level, Message: message})
	r.mu.Unlock()
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Errors returns the messages of recorded error notices.
func (r *Recorder) Errors() []string {
	var out []string
	for _, n := range r.Notices() {
		if n.Level == LevelError {
			out = append(out, n.Message)
		}
	}
	return out
}

// Nop discards notices.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(Level, string) {}
