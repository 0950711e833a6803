package gate

import (
	"fmt"
	"log/slog"
	"os"
)

// ViolationError is raised when an abort-policy symbol is invoked while
// gating is enabled. It is a programming error in the calling code, not a
// recoverable runtime condition.
type ViolationError struct {
	Symbol string
	Reason string
}

func (e *ViolationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("thread-unsafe call to %s while gating enabled", e.Symbol)
	}
	return fmt.Sprintf("thread-unsafe call to %s while gating enabled (%s)", e.Symbol, e.Reason)
}

// ResolveError is raised when a catalogued symbol has no real implementation
// in the underlying runtime. It surfaces on first invocation, not at
// initialization.
type ResolveError struct {
	Symbol string
	Err    error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("no real implementation for %s: %v", e.Symbol, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// FaultHandler receives violation and resolution faults. The production
// handler terminates the process; tests install a recording handler so the
// abort path is assertable in-process.
type FaultHandler func(error)

// Terminate returns the production fault handler: log and exit with the
// SIGABRT convention code.
func Terminate(logger *slog.Logger) FaultHandler {
	return func(err error) {
		logger.Error("fatal thread-safety fault", "err", err)
		os.Exit(134)
	}
}
