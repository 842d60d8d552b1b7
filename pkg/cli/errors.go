package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the apikeywall command.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitInvalid = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationFailedError reports a secrets file that did not validate. The
// individual problems have already been printed.
type ValidationFailedError struct {
	Path   string
	Errors int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%s: %d validation error(s)", e.Path, e.Errors)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}

	var valErr *ValidationFailedError
	if errors.As(err, &valErr) {
		return ExitInvalid
	}

	return ExitFailure
}
