package errors

import (
	"fmt"
)

// Custom error type for not implemented errors
type NotImplementedError struct {
	MethodName string
	PluginName string
}

// Implement the error interface for NotImplementedError
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %q is not implemented for %q", e.MethodName, e.PluginName)
}

// Constructor for NotImplementedError
func NewNotImplementedError(methodName, pluginName string) error {
	return &NotImplementedError{
		MethodName: methodName,
		PluginName: pluginName,
	}
}

// CommandError represents an error that occurred during command execution,
// carrying the exit code the process should finish with.
type CommandError struct {
	ExitCode    int
	CommonError string
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError instance encapsulating the
// underlying error and exit code.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
	}
}

// NewCommandErrorf creates a new CommandError from a format string.
func NewCommandErrorf(code int, format string, args ...interface{}) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: fmt.Sprintf(format, args...),
	}
}
