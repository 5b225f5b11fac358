// Package errors provides error handling conventions for the savekit CLI.
//
// This package defines sentinel errors for the engine's failure taxonomy,
// an ExitError type for CLI exit code handling, and exit code constants
// following standard Unix conventions.
//
// # Sentinel Errors
//
// Sentinel errors allow callers to check for specific error conditions
// using [Is]:
//
//	if errors.Is(err, errors.ErrCorruptArchive) {
//	    // handle malformed archive
//	}
//
// Pipeline failures are wrapped with step context by the engine; the sentinel
// stays reachable through the chain so callers never have to parse messages.
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion for CLI applications:
//
//	err := errors.NewUserError(errors.ErrProfileNotFound, "Run 'savekit profile list'")
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
