// Package logger provides the console logging used across quill.
//
// Debug, Info and Section output is printed only in verbose mode (--verbose).
// Warnings are always printed, and can additionally be forwarded to a hook
// so degraded operations (a corrupt shard read as empty, a skipped shard
// during a rebuild) can be counted or alerted on.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu       sync.RWMutex
	verbose  bool
	output   io.Writer = os.Stderr
	warnHook func(msg string)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetWarnHook registers fn to receive every warning message. Nil removes it.
// The hook is called synchronously and must not log.
func SetWarnHook(fn func(msg string)) {
	mu.Lock()
	defer mu.Unlock()
	warnHook = fn
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	printVerbose("[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	printVerbose("[INFO] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Warn prints a warning regardless of verbose mode and passes it to the hook.
func Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, "[WARN] %s\n", msg)
	if warnHook != nil {
		warnHook(msg)
	}
}

// printVerbose holds the write lock so concurrent writes do not interleave.
func printVerbose(prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}
