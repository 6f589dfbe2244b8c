// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the gitingest CLI.
//
// This package defines UserError, a type that carries structured error information
// including what went wrong, why it happened, and how to fix it. It also defines
// consistent exit codes for different error categories, and FromIngestErr, which
// translates a pkg/ingesterr sentinel into a UserError with the right exit code.
//
// # Usage Example
//
// Creating and displaying errors:
//
//	err := errors.NewRemoteError(
//	    "Cannot reach github.com",
//	    "Connection timed out after 60 seconds",
//	    "Check your network connection and retry",
//	    underlyingErr,
//	)
//	if err != nil {
//	    // Simple approach: print and exit with colored output
//	    errors.FatalError(err, false)
//	}
//
// Translating a pkg/ingesterr sentinel returned by pkg/ingest:
//
//	if _, err := orchestrator.Ingest(ctx, source, opts); err != nil {
//	    errors.FatalError(errors.FromIngestErr(err), jsonMode)
//	}
//
// # Formatted Output
//
// The Format() method provides colored terminal output:
//
//	err := errors.NewCloneError(
//	    "Cannot clone repository",
//	    "git exited with status 128: repository not found",
//	    "Check the URL and your access token",
//	    underlyingErr,
//	)
//	fmt.Fprint(os.Stderr, err.Format(false))
//	// Output (with colors):
//	// Error: Cannot clone repository
//	// Cause: git exited with status 128: repository not found
//	// Fix:   Check the URL and your access token
//
// For JSON output:
//
//	jsonData := err.ToJSON()
//	json.NewEncoder(os.Stderr).Encode(jsonData)
//	// Output:
//	// {
//	//   "error": "Cannot clone repository",
//	//   "cause": "git exited with status 128: repository not found",
//	//   "fix": "Check the URL and your access token",
//	//   "exit_code": 6
//	// }
//
// # Exit Codes
//
// The package defines semantic exit codes mirroring pkg/ingesterr's
// taxonomy:
//   - ExitSuccess (0): Successful execution
//   - ExitInvalidInput (1): Malformed URL, slug, pattern, or credential
//   - ExitHostRejected (2): Unknown domain, or no known host answered a probe
//   - ExitNotFound (3): Repository not found (remote 404 or failed probe)
//   - ExitRef (4): Ref not found in the remote's advertised refs
//   - ExitRemote (5): Transport failure, rate limit, or 5xx from the remote
//   - ExitClone (6): Non-zero exit from the git subprocess
//   - ExitTimeout (7): Deadline exceeded at a network step
//   - ExitInternal (10): Internal errors (bugs, panics)
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kraklabs/gitingest/pkg/ingesterr"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitInvalidInput indicates a malformed URL, slug, pattern, or
	// credential (pkg/ingesterr.ErrInvalidInput/ErrInvalidPattern/ErrInvalidNotebook/ErrLimitExceeded).
	ExitInvalidInput = 1

	// ExitHostRejected indicates an unknown domain, or that no known host
	// answered an existence probe (ErrUnknownDomain/ErrNoHostFound).
	ExitHostRejected = 2

	// ExitNotFound indicates the repository itself could not be found
	// (ErrRepoNotFound).
	ExitNotFound = 3

	// ExitRef indicates the requested branch/tag/commit was not found
	// among the remote's advertised refs (ErrRefNotFound).
	ExitRef = 4

	// ExitRemote indicates a transport failure, rate limit, or 5xx from
	// the remote (ErrRemoteError).
	ExitRemote = 5

	// ExitClone indicates the git subprocess exited non-zero after the
	// existence probe succeeded (ErrCloneError).
	ExitClone = 6

	// ExitTimeout indicates a deadline was exceeded at a network step
	// (ErrTimedOut).
	ExitTimeout = 7

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	ExitInternal = 10
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: What went wrong (user-facing error description)
//   - Cause: Why it happened (diagnostic information)
//   - Fix: How to fix it (actionable suggestion)
//
// UserError also carries an exit code for consistent CLI exit behavior
// and optionally wraps an underlying error for error chain compatibility.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error that caused this error (optional).
	// This enables error wrapping and compatibility with errors.Is/As.
	Err error
}

// Error implements the error interface.
//
// It returns a simple error message string. If an underlying error is present,
// it appends that error's message for context.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements error unwrapping for compatibility with errors.Is and errors.As.
//
// It returns the underlying error, allowing standard library error inspection
// functions to work with error chains.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError creates an input validation error with exit code
// ExitInvalidInput.
//
// Use this for errors related to invalid user input, such as a malformed
// repository URL, an invalid pattern token, or a bad command-line flag.
func NewInvalidInputError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInvalidInput, Err: err}
}

// NewHostRejectedError creates a host-rejection error with exit code
// ExitHostRejected.
//
// Use this when a source's host is neither a known forge nor matched a
// known probe.
func NewHostRejectedError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitHostRejected, Err: err}
}

// NewNotFoundError creates a repository-not-found error with exit code
// ExitNotFound.
func NewNotFoundError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNotFound, Err: err}
}

// NewRefError creates a ref-not-found error with exit code ExitRef.
func NewRefError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitRef, Err: err}
}

// NewRemoteError creates a remote transport error with exit code
// ExitRemote.
//
// Use this for errors related to network connectivity or the remote git
// smart-HTTP protocol (rate limiting, 5xx responses).
func NewRemoteError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitRemote, Err: err}
}

// NewCloneError creates a clone-subprocess error with exit code ExitClone.
func NewCloneError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitClone, Err: err}
}

// NewTimeoutError creates a deadline-exceeded error with exit code
// ExitTimeout.
func NewTimeoutError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitTimeout, Err: err}
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs in the program, such as
// assertion failures, unexpected nil values, or unhandled error cases.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, Err: err}
}

// FromIngestErr translates an error returned by pkg/ingest into a
// *UserError with the exit code and Message/Cause/Fix text matching its
// pkg/ingesterr sentinel. If err does not wrap any known sentinel, it
// returns an ExitInternal UserError instead. A nil err returns nil.
func FromIngestErr(err error) *UserError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ingesterr.ErrInvalidInput):
		return NewInvalidInputError("Invalid input",
			err.Error(), "Check the source URL, slug, or local path and try again", err)
	case errors.Is(err, ingesterr.ErrInvalidPattern):
		return NewInvalidInputError("Invalid include/exclude pattern",
			err.Error(), "Patterns may only contain letters, digits, and the characters _ . / + * @ ! -", err)
	case errors.Is(err, ingesterr.ErrInvalidNotebook):
		return NewInvalidInputError("Invalid Jupyter notebook",
			err.Error(), "The notebook's JSON is malformed; fix it and retry", err)
	case errors.Is(err, ingesterr.ErrLimitExceeded):
		return NewInvalidInputError("Traversal limit exceeded",
			err.Error(), "Narrow the include/exclude patterns or raise --max-size", err)
	case errors.Is(err, ingesterr.ErrUnknownDomain):
		return NewHostRejectedError("Unrecognized host",
			err.Error(), "Use a known forge (github.com, gitlab.com, bitbucket.org) or a bare slug", err)
	case errors.Is(err, ingesterr.ErrNoHostFound):
		return NewHostRejectedError("No host answered for this slug",
			err.Error(), "Pass a fully-qualified URL instead of a bare owner/repo slug", err)
	case errors.Is(err, ingesterr.ErrRepoNotFound):
		return NewNotFoundError("Repository not found",
			err.Error(), "Check the owner/repo spelling, or pass --token for a private repo", err)
	case errors.Is(err, ingesterr.ErrRefNotFound):
		return NewRefError("Branch or tag not found",
			err.Error(), "List the remote's refs and check the spelling", err)
	case errors.Is(err, ingesterr.ErrRemoteError):
		return NewRemoteError("Remote request failed",
			err.Error(), "The remote may be rate-limiting or unavailable; retry later", err)
	case errors.Is(err, ingesterr.ErrCloneError):
		return NewCloneError("Cannot clone repository",
			err.Error(), "Check the URL and your access token", err)
	case errors.Is(err, ingesterr.ErrTimedOut):
		return NewTimeoutError("Operation timed out",
			err.Error(), "Check your network connection and try again", err)
	default:
		return NewInternalError("Unexpected error",
			err.Error(), "This is a bug. Please report it.", err)
	}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// The output includes colored sections for Error (red/bold), Cause (yellow),
// and Fix (green). Color output respects the NO_COLOR environment variable
// and can be explicitly disabled with the noColor parameter.
//
// Example output:
//
//	Error: Cannot clone repository
//	Cause: git exited with status 128: repository not found
//	Fix:   Check the URL and your access token
//
// Empty Cause or Fix fields are omitted from the output.
//
// Note: This method temporarily modifies the global color.NoColor state
// and restores it after formatting to ensure thread safety.
func (e *UserError) Format(noColor bool) string {
	// Save and restore global color state to avoid side effects
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format.
//
// This structure is suitable for machine consumption and integrates with
// CLI commands that support --json output mode.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
//
// Fields with empty values (Cause, Fix) are omitted from JSON output
// using the omitempty tag. This keeps JSON output clean when additional
// context is not available.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints the error and exits with the appropriate code.
//
// If the error is a UserError, it uses Format() for colored output or
// ToJSON() for JSON mode. For non-UserError types, it prints a simple
// error message and exits with ExitInternal.
//
// This function never returns - it always calls os.Exit().
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    errors.FatalError(err, jsonMode)
//	}
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			// Encode error is intentionally ignored since we're about to exit.
			// If JSON encoding fails, the program will still exit with the correct code.
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	// Fallback for non-UserError
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
