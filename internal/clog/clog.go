// Package clog provides conditional debug logging for the collective
// engine, off by default so it costs nothing on the hot path (mirrors the
// original implementation's FI_DBG / ENABLE_DEBUG trace).
package clog

import (
	"fmt"
	"log"
)

var enabled = false

// Enable turns on conditional log output process-wide.
func Enable() {
	enabled = true
}

// Disable turns conditional log output back off.
func Disable() {
	enabled = false
}

// Logger logs in the manner of the standard logger but only when Enable has
// been called.
type Logger struct {
	logger *log.Logger
}

// New creates a Logger with the given prefix.
func New(prefixFormat string, prefixArgs ...any) *Logger {
	return &Logger{
		log.New(
			log.Default().Writer(),
			fmt.Sprintf(prefixFormat, prefixArgs...),
			log.Ldate|log.Ltime|log.Lmicroseconds|log.Lmsgprefix,
		),
	}
}

// Printf logs conditionally, in the manner of log.Printf.
func (l *Logger) Printf(format string, a ...any) {
	if !enabled {
		return
	}
	l.logger.Printf(format, a...)
}
