package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	gray   = color.New(color.FgHiBlack)
	blue   = color.New(color.FgBlue)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	purple = color.New(color.FgMagenta)
	white  = color.New(color.FgWhite)
)

// SetOutput redirects both streams, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	errOut = w
}

func write(w io.Writer, c *color.Color, prefix, message string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(w, "%s %s\n", gray.Sprintf("[%s]", timestamp), c.Sprint(prefix+fmt.Sprintf(message, args...)))
}

// Info logs general information (blue)
func Info(message string, args ...interface{}) {
	write(out, blue, "", message, args...)
}

// Success logs a completed step (green)
func Success(message string, args ...interface{}) {
	write(out, green, "✓ ", message, args...)
}

// Warning logs a recoverable problem (yellow)
func Warning(message string, args ...interface{}) {
	write(out, yellow, "⚠ ", message, args...)
}

// Error logs a failure (red)
func Error(message string, args ...interface{}) {
	write(errOut, red, "✗ ", message, args...)
}

// Debug logs only outside release mode
func Debug(message string, args ...interface{}) {
	if os.Getenv("GIN_MODE") == "release" {
		return
	}
	write(out, gray, "DEBUG: ", message, args...)
}

// Request logs an HTTP request with its status and duration
func Request(method, path string, statusCode int, duration time.Duration) {
	var c *color.Color
	switch {
	case statusCode >= 500:
		c = red
	case statusCode >= 400:
		c = yellow
	default:
		c = green
	}

	var durationStr string
	switch {
	case duration < time.Millisecond:
		durationStr = fmt.Sprintf("%dµs", duration.Microseconds())
	case duration < time.Second:
		durationStr = fmt.Sprintf("%dms", duration.Milliseconds())
	default:
		durationStr = fmt.Sprintf("%.2fs", duration.Seconds())
	}

	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %s %s %s %s\n",
		gray.Sprintf("[%s]", time.Now().Format("15:04:05")),
		purple.Sprintf("%-6s", method),
		white.Sprintf("%-50s", path),
		c.Sprintf("[%d]", statusCode),
		gray.Sprintf("(%s)", durationStr),
	)
}
