package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedErrorTemplateConstant        = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %s"
	redactionPlaceholderConstant              = "REDACTED"
	logFieldCommandConstant                   = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
)

// CommandName identifies an executable supported by the shell executor.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName("git")

// CommandDetails describes a single invocation of an executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner starts processes and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

var (
	// ErrLoggerNotConfigured indicates the executor was built without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was built without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command together with its standard error output.
func (failedError CommandFailedError) Error() string {
	label := CommandMessageFormatter{}.formatCommandLabel(failedError.Command)
	standardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(standardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, label, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, label, failedError.Result.ExitCode, standardError)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	label := CommandMessageFormatter{}.formatCommandLabel(executionError.Command)
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, label, CommandMessageFormatter{}.describeFailure(executionError.Cause))
}

// Unwrap exposes the underlying runner error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(*ShellExecutor)

// WithCommandEventObserver routes lifecycle events to the provided observer.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observer = observer
		}
	}
}

// WithRedactedValues masks the provided secrets in every log line, event, and error.
func WithRedactedValues(secretValues ...string) ExecutorOption {
	return func(executor *ShellExecutor) {
		for _, secretValue := range secretValues {
			trimmedSecret := strings.TrimSpace(secretValue)
			if len(trimmedSecret) == 0 {
				continue
			}
			executor.redactedValues = append(executor.redactedValues, trimmedSecret)
		}
	}
}

// ShellExecutor runs external tools, logging each invocation through zap.
type ShellExecutor struct {
	logger         *zap.Logger
	runner         CommandRunner
	observer       CommandEventObserver
	formatter      CommandMessageFormatter
	redactedValues []string
}

// NewShellExecutor validates collaborators and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:    logger,
		runner:    runner,
		observer:  noopCommandEventObserver{},
		formatter: CommandMessageFormatter{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the command and converts non-zero exits into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	reportedCommand := executor.redactCommand(command)

	executor.logger.Info(
		executor.formatter.BuildStartedMessage(reportedCommand),
		zap.String(logFieldCommandConstant, string(reportedCommand.Name)),
		zap.Strings(logFieldArgumentsConstant, reportedCommand.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, reportedCommand.Details.WorkingDirectory),
	)
	executor.observer.CommandStarted(reportedCommand)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		redactedFailure := errors.New(executor.redactText(runError.Error()))
		executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(reportedCommand, redactedFailure))
		executor.observer.CommandExecutionFailed(reportedCommand, redactedFailure)
		return ExecutionResult{}, CommandExecutionError{Command: reportedCommand, Cause: redactedFailure}
	}

	reportedResult := ExecutionResult{
		StandardOutput: executor.redactText(executionResult.StandardOutput),
		StandardError:  executor.redactText(executionResult.StandardError),
		ExitCode:       executionResult.ExitCode,
	}
	executor.observer.CommandCompleted(reportedCommand, reportedResult)

	if reportedResult.ExitCode != 0 {
		failureLog := executor.logger.Warn
		if IndicatesStagedChanges(reportedCommand, reportedResult) {
			failureLog = executor.logger.Info
		}
		failureLog(
			executor.formatter.BuildFailureMessage(reportedCommand, reportedResult),
			zap.Int(logFieldExitCodeConstant, reportedResult.ExitCode),
			zap.String(logFieldStandardErrorConstant, strings.TrimSpace(reportedResult.StandardError)),
		)
		return ExecutionResult{}, CommandFailedError{Command: reportedCommand, Result: reportedResult}
	}

	executor.logger.Info(executor.formatter.BuildSuccessMessage(reportedCommand))
	return reportedResult, nil
}

func (executor *ShellExecutor) redactCommand(command ShellCommand) ShellCommand {
	if len(executor.redactedValues) == 0 {
		return command
	}
	redactedArguments := make([]string, 0, len(command.Details.Arguments))
	for _, argument := range command.Details.Arguments {
		redactedArguments = append(redactedArguments, executor.redactText(argument))
	}
	redactedCommand := command
	redactedCommand.Details.Arguments = redactedArguments
	redactedCommand.Details.EnvironmentVariables = nil
	redactedCommand.Details.StandardInput = nil
	return redactedCommand
}

func (executor *ShellExecutor) redactText(text string) string {
	redacted := text
	for _, secretValue := range executor.redactedValues {
		redacted = strings.ReplaceAll(redacted, secretValue, redactionPlaceholderConstant)
	}
	return redacted
}
