package licensing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/relicense/internal/execshell"
)

const (
	gitCommandErrorTemplateConstant           = "git %s failed for %s: %s"
	gitCommandErrorWithOutputTemplateConstant = "git %s failed for %s (exit code %d): %s"
	filesystemErrorTemplateConstant           = "unable to %s %s: %s"
	batchFailedErrorTemplateConstant          = "license application failed for %d repositor%s: %s"
	batchFailedSingularSuffixConstant         = "y"
	batchFailedPluralSuffixConstant           = "ies"
	batchFailedNameSeparatorConstant          = ", "
)

// GitCommandError reports a git step that failed for one repository.
type GitCommandError struct {
	Repository    string
	Step          string
	ExitCode      int
	StandardError string
	Cause         error
	causeMessage  string
}

// Error describes the failed git step with the tool's stderr when available.
func (commandError GitCommandError) Error() string {
	standardError := strings.TrimSpace(commandError.StandardError)
	if len(standardError) > 0 {
		return fmt.Sprintf(gitCommandErrorWithOutputTemplateConstant, commandError.Step, commandError.Repository, commandError.ExitCode, standardError)
	}
	if len(commandError.causeMessage) > 0 {
		return fmt.Sprintf(gitCommandErrorTemplateConstant, commandError.Step, commandError.Repository, commandError.causeMessage)
	}
	return fmt.Sprintf(gitCommandErrorTemplateConstant, commandError.Step, commandError.Repository, describeCause(commandError.Cause))
}

// Unwrap exposes the underlying execution failure.
func (commandError GitCommandError) Unwrap() error {
	return commandError.Cause
}

// newGitCommandError wraps an executor failure, lifting exit code and stderr when the process ran.
// Every message it exposes passes through the redactor.
func newGitCommandError(repository string, step string, cause error, redactor secretRedactor) GitCommandError {
	commandError := GitCommandError{
		Repository:   repository,
		Step:         step,
		Cause:        cause,
		causeMessage: redactor.redact(describeCause(cause)),
	}
	var failedError execshell.CommandFailedError
	if errors.As(cause, &failedError) {
		commandError.ExitCode = failedError.Result.ExitCode
		commandError.StandardError = redactor.redact(strings.TrimSpace(failedError.Result.StandardError))
	}
	return commandError
}

// FilesystemError reports a filesystem operation that could not be completed.
type FilesystemError struct {
	Operation string
	Path      string
	Cause     error
}

// Error describes the filesystem failure.
func (filesystemError FilesystemError) Error() string {
	return fmt.Sprintf(filesystemErrorTemplateConstant, filesystemError.Operation, filesystemError.Path, describeCause(filesystemError.Cause))
}

// Unwrap exposes the underlying filesystem error.
func (filesystemError FilesystemError) Unwrap() error {
	return filesystemError.Cause
}

// BatchFailedError reports that one or more repositories failed during a batch.
type BatchFailedError struct {
	FailedRepositories []string
}

// Error lists the failed repositories by name.
func (batchError BatchFailedError) Error() string {
	suffix := batchFailedPluralSuffixConstant
	if len(batchError.FailedRepositories) == 1 {
		suffix = batchFailedSingularSuffixConstant
	}
	return fmt.Sprintf(batchFailedErrorTemplateConstant, len(batchError.FailedRepositories), suffix, strings.Join(batchError.FailedRepositories, batchFailedNameSeparatorConstant))
}

func describeCause(cause error) string {
	if cause == nil {
		return unknownFailureMessageConstant
	}
	return cause.Error()
}
