package cli

import (
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (canister call failed, nothing deployed, etc.)
	ExitCommandError = 2 // Command error (bad flags, unparsable principals, missing record, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer writes human-readable command output.
type printer struct {
	out io.Writer
}

func (p printer) Header(title string) {
	fmt.Fprintf(p.out, "\n═══════════════════════════════════════\n%s\n═══════════════════════════════════════\n\n", title)
}

func (p printer) Step(format string, args ...any) {
	fmt.Fprintf(p.out, "➜ "+format+"\n", args...)
}

func (p printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "ℹ "+format+"\n", args...)
}

func (p printer) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p printer) Warning(format string, args ...any) {
	fmt.Fprintf(p.out, "⚠ "+format+"\n", args...)
}
