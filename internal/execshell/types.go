package execshell

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	commandNameGitConstant                    = "git"
	commandNameGitHubConstant                 = "gh"
	commandFailedErrorTemplateConstant        = "%s command exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s command exited with code %d: %s"
	commandExecutionErrorTemplateConstant     = "%s command failed: %v"
	commandTimeoutErrorTemplateConstant       = "%s command timed out after %s"
	commandLabelWithArgumentsTemplateConstant = "%s %s"
)

// CommandName identifies a supported executable.
type CommandName string

// Supported executables.
const (
	CommandGit    CommandName = CommandName(commandNameGitConstant)
	CommandGitHub CommandName = CommandName(commandNameGitHubConstant)
)

// CommandDetails describes the arguments and process environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a ShellCommand and reports its outcome.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError indicates the command ran but exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, describeCommand(failedError.Command), failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, describeCommand(failedError.Command), failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError indicates the command could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(executionError.Command), executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// CommandTimeoutError indicates the command exceeded the configured timeout and was terminated.
type CommandTimeoutError struct {
	Command ShellCommand
	Timeout time.Duration
}

// Error describes the timeout.
func (timeoutError CommandTimeoutError) Error() string {
	return fmt.Sprintf(commandTimeoutErrorTemplateConstant, describeCommand(timeoutError.Command), timeoutError.Timeout)
}

// Unwrap reports context.DeadlineExceeded so callers can use errors.Is.
func (timeoutError CommandTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

func describeCommand(command ShellCommand) string {
	if len(command.Details.Arguments) == 0 {
		return string(command.Name)
	}
	return fmt.Sprintf(commandLabelWithArgumentsTemplateConstant, command.Name, command.Details.Arguments[0])
}
