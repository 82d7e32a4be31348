package licensing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/execshell"
	"github.com/temirov/relicense/internal/resultset"
)

const (
	licenseFileNameConstant                 = "LICENSE"
	workingDirectoryPermissionsConstant     = fs.FileMode(0o755)
	licenseFilePermissionsConstant          = fs.FileMode(0o644)
	terminalPromptEnvironmentKeyConstant    = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValueConstant     = "0"
	optionalLocksEnvironmentKeyConstant     = "GIT_OPTIONAL_LOCKS"
	optionalLocksDisabledValueConstant      = "0"
	gitCloneArgumentConstant                = "clone"
	gitAddArgumentConstant                  = "add"
	gitDiffArgumentConstant                 = "diff"
	gitCachedFlagConstant                   = "--cached"
	gitQuietFlagConstant                    = "--quiet"
	gitStatusArgumentConstant               = "status"
	gitPorcelainFlagConstant                = "--porcelain"
	gitCommitArgumentConstant               = "commit"
	gitSignFlagConstant                     = "-S"
	gitMessageFlagConstant                  = "-m"
	gitPathspecSeparatorConstant            = "--"
	gitPushArgumentConstant                 = "push"
	gitRemoteNameConstant                   = "origin"
	gitPushReferenceConstant                = "HEAD"
	stagedChangesExitCodeConstant           = 1
	cloneStepConstant                       = "clone"
	stageStepConstant                       = "add"
	diffStepConstant                        = "diff"
	statusStepConstant                      = "status"
	commitStepConstant                      = "commit"
	pushStepConstant                        = "push"
	readLicenseOperationConstant            = "read license file"
	inspectCloneOperationConstant           = "inspect clone directory"
	inspectLicenseOperationConstant         = "read existing license"
	createWorkingDirectoryOperationConstant = "create working directory"
	writeLicenseOperationConstant           = "write license file"
	licenseIsDirectoryMessageConstant       = "is a directory"
	notADirectoryMessageConstant            = "exists and is not a directory"
	unknownFailureMessageConstant           = "unknown error"
	missingNameOrURLDetailConstant          = "missing name or url"
	invalidNameDetailConstant               = "invalid repository name"
	nothingToCommitDetailConstant           = "nothing to commit"
	cloneDetailTemplateConstant             = "%s → %s"
	copyDetailTemplateConstant              = "%s → %s"
	commitDetailTemplateConstant            = "%q (%s)"
	signedCommitLabelConstant               = "signed"
	unsignedCommitLabelConstant             = "unsigned"
	pushDetailTemplateConstant              = "%s → %s"
	plannedActionTemplateConstant           = "PLAN-%s: %s %s\n"
	completedActionTemplateConstant         = "%s-DONE: %s %s\n"
	plannedSkipTemplateConstant             = "PLAN-SKIP: %s (%s)\n"
	completedSkipTemplateConstant           = "SKIP: %s (%s)\n"
	gitExecutorMissingMessageConstant       = "licensing git executor not configured"
	fileSystemMissingMessageConstant        = "licensing file system not configured"
	repositoryFailedMessageConstant         = "repository licensing failed"
	repositoryStartedMessageConstant        = "processing repository"
	batchCompletedMessageConstant           = "license batch completed"
	logFieldRepositoryConstant              = "repository"
	logFieldStandardErrorConstant           = "stderr"
	logFieldDryRunConstant                  = "dry_run"
	logFieldProcessedCountConstant          = "processed"
	logFieldFailedCountConstant             = "failed"
	logFieldCloneDirectoryConstant          = "clone_directory"
	cloneActionLabelConstant                = "CLONE"
	reuseActionLabelConstant                = "REUSE"
	copyActionLabelConstant                 = "COPY-LICENSE"
	commitActionLabelConstant               = "COMMIT"
	pushActionLabelConstant                 = "PUSH"
	currentDirectoryNameConstant            = "."
	parentDirectoryNameConstant             = ".."
	defaultWorkingDirectoryConstant         = "repos"
	defaultCommitMessageConstant            = "feat: add licence"
	defaultLicenseFilePathConstant          = licenseFileNameConstant
	missingNameOrURLLogMessageConstant      = "skipping record without name or url"
	invalidRepositoryNameLogMessageConstant = "skipping record with invalid repository name"
)

var (
	// ErrGitExecutorNotConfigured indicates the service was built without a git executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrFileSystemNotConfigured indicates the service was built without a file system.
	ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Options is the resolved configuration for one licensing batch.
type Options struct {
	WorkingDirectory string
	LicenseFilePath  string
	CommitMessage    string
	DryRun           bool
	DisableSSH       bool
	Token            string
	Push             bool
	DisableSigning   bool
}

func (options Options) sanitize() Options {
	sanitized := options
	sanitized.WorkingDirectory = strings.TrimSpace(options.WorkingDirectory)
	if len(sanitized.WorkingDirectory) == 0 {
		sanitized.WorkingDirectory = defaultWorkingDirectoryConstant
	}
	sanitized.LicenseFilePath = strings.TrimSpace(options.LicenseFilePath)
	if len(sanitized.LicenseFilePath) == 0 {
		sanitized.LicenseFilePath = defaultLicenseFilePathConstant
	}
	sanitized.CommitMessage = strings.TrimSpace(options.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = defaultCommitMessageConstant
	}
	sanitized.Token = strings.TrimSpace(options.Token)
	return sanitized
}

// Dependencies supplies collaborators for the licensing service.
type Dependencies struct {
	GitExecutor GitExecutor
	FileSystem  afero.Fs
	Output      io.Writer
	Logger      *zap.Logger
}

// Service applies a license file to every repository in a result set.
type Service struct {
	dependencies Dependencies
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	return &Service{dependencies: dependencies}, nil
}

// Process licenses each record in order. Repository failures are collected in the
// report and never stop the batch; the returned error covers pre-flight failures
// and cancellation only.
func (service *Service) Process(executionContext context.Context, records []resultset.Record, options Options) (Report, error) {
	resolvedOptions := options.sanitize()

	licenseContent, licenseError := service.readLicenseTemplate(resolvedOptions.LicenseFilePath)
	if licenseError != nil {
		return Report{}, licenseError
	}

	report := Report{Results: make([]Result, 0, len(records))}
	for _, record := range records {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}
		run := &repositoryRun{
			service:        service,
			record:         record,
			options:        resolvedOptions,
			licenseContent: licenseContent,
			redactor:       newSecretRedactor(resolvedOptions.Token),
			result:         Result{Repository: strings.TrimSpace(record.Name)},
		}
		run.execute(executionContext)
		if run.result.Error != nil {
			service.logFailure(run.result)
		}
		report.Results = append(report.Results, run.result)
	}

	service.dependencies.Logger.Info(
		batchCompletedMessageConstant,
		zap.Bool(logFieldDryRunConstant, resolvedOptions.DryRun),
		zap.Int(logFieldProcessedCountConstant, len(report.Results)),
		zap.Int(logFieldFailedCountConstant, len(report.Failures())),
	)
	return report, nil
}

func (service *Service) readLicenseTemplate(licensePath string) ([]byte, error) {
	licenseInfo, statError := service.dependencies.FileSystem.Stat(licensePath)
	if statError != nil {
		return nil, FilesystemError{Operation: readLicenseOperationConstant, Path: licensePath, Cause: statError}
	}
	if licenseInfo.IsDir() {
		return nil, FilesystemError{Operation: readLicenseOperationConstant, Path: licensePath, Cause: errors.New(licenseIsDirectoryMessageConstant)}
	}
	content, readError := afero.ReadFile(service.dependencies.FileSystem, licensePath)
	if readError != nil {
		return nil, FilesystemError{Operation: readLicenseOperationConstant, Path: licensePath, Cause: readError}
	}
	return content, nil
}

func (service *Service) logFailure(result Result) {
	fields := []zap.Field{
		zap.String(logFieldRepositoryConstant, result.Repository),
		zap.Error(result.Error),
	}
	var commandError GitCommandError
	if errors.As(result.Error, &commandError) && len(commandError.StandardError) > 0 {
		fields = append(fields, zap.String(logFieldStandardErrorConstant, commandError.StandardError))
	}
	service.dependencies.Logger.Error(repositoryFailedMessageConstant, fields...)
}

// repositoryRun carries the state of one repository through the licensing steps.
type repositoryRun struct {
	service        *Service
	record         resultset.Record
	options        Options
	licenseContent []byte
	redactor       secretRedactor
	result         Result
}

func (run *repositoryRun) execute(executionContext context.Context) {
	name := run.result.Repository
	if len(name) == 0 || len(strings.TrimSpace(run.record.URL)) == 0 {
		run.service.dependencies.Logger.Warn(missingNameOrURLLogMessageConstant, zap.String(logFieldRepositoryConstant, name))
		run.skip(missingNameOrURLDetailConstant)
		return
	}
	if !isPlainDirectoryName(name) {
		run.service.dependencies.Logger.Warn(invalidRepositoryNameLogMessageConstant, zap.String(logFieldRepositoryConstant, name))
		run.skip(invalidNameDetailConstant)
		return
	}

	cloneDirectory := filepath.Join(run.options.WorkingDirectory, name)
	run.service.dependencies.Logger.Debug(
		repositoryStartedMessageConstant,
		zap.String(logFieldRepositoryConstant, name),
		zap.String(logFieldCloneDirectoryConstant, cloneDirectory),
		zap.Bool(logFieldDryRunConstant, run.options.DryRun),
	)

	cloneExists, inspectError := run.cloneDirectoryExists(cloneDirectory)
	if inspectError != nil {
		run.fail(inspectError)
		return
	}

	if cloneExists {
		run.recordAction(Action{Kind: OutcomeAlreadyPresent, Detail: cloneDirectory})
	} else if !run.clone(executionContext, cloneDirectory) {
		return
	}

	if !run.copyLicense(cloneDirectory) {
		return
	}

	if !run.commit(executionContext, cloneDirectory, cloneExists) {
		return
	}

	if run.options.Push {
		run.push(executionContext, cloneDirectory)
	}
}

func (run *repositoryRun) cloneDirectoryExists(cloneDirectory string) (bool, error) {
	directoryInfo, statError := run.service.dependencies.FileSystem.Stat(cloneDirectory)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, nil
		}
		return false, FilesystemError{Operation: inspectCloneOperationConstant, Path: cloneDirectory, Cause: statError}
	}
	if !directoryInfo.IsDir() {
		return false, FilesystemError{Operation: inspectCloneOperationConstant, Path: cloneDirectory, Cause: errors.New(notADirectoryMessageConstant)}
	}
	return true, nil
}

func (run *repositoryRun) clone(executionContext context.Context, cloneDirectory string) bool {
	cloneURL, transportError := resolveCloneURL(run.record, run.options)
	if transportError != nil {
		run.fail(transportError)
		return false
	}
	action := Action{Kind: OutcomeCloned, Detail: fmt.Sprintf(cloneDetailTemplateConstant, run.redactor.redact(cloneURL), cloneDirectory)}
	if run.options.DryRun {
		run.recordAction(action)
		return true
	}

	if mkdirError := run.service.dependencies.FileSystem.MkdirAll(run.options.WorkingDirectory, workingDirectoryPermissionsConstant); mkdirError != nil {
		run.fail(FilesystemError{Operation: createWorkingDirectoryOperationConstant, Path: run.options.WorkingDirectory, Cause: mkdirError})
		return false
	}

	_, cloneError := run.service.dependencies.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCloneArgumentConstant, cloneURL, cloneDirectory},
		EnvironmentVariables: map[string]string{terminalPromptEnvironmentKeyConstant: terminalPromptDisabledValueConstant},
	})
	if cloneError != nil {
		run.fail(newGitCommandError(run.result.Repository, cloneStepConstant, cloneError, run.redactor))
		return false
	}
	run.recordAction(action)
	return true
}

func (run *repositoryRun) copyLicense(cloneDirectory string) bool {
	targetPath := filepath.Join(cloneDirectory, licenseFileNameConstant)
	action := Action{Kind: OutcomeLicenseCopied, Detail: fmt.Sprintf(copyDetailTemplateConstant, run.options.LicenseFilePath, targetPath)}
	if run.options.DryRun {
		run.recordAction(action)
		return true
	}
	if writeError := afero.WriteFile(run.service.dependencies.FileSystem, targetPath, run.licenseContent, licenseFilePermissionsConstant); writeError != nil {
		run.fail(FilesystemError{Operation: writeLicenseOperationConstant, Path: targetPath, Cause: writeError})
		return false
	}
	run.recordAction(action)
	return true
}

func (run *repositoryRun) commit(executionContext context.Context, cloneDirectory string, cloneExisted bool) bool {
	commitAction := Action{Kind: OutcomeCommitted, Detail: fmt.Sprintf(commitDetailTemplateConstant, run.options.CommitMessage, run.signingLabel())}
	skipAction := Action{Kind: OutcomeSkipped, Detail: nothingToCommitDetailConstant}

	if run.options.DryRun {
		commitNeeded, predictionError := run.predictCommit(executionContext, cloneDirectory, cloneExisted)
		if predictionError != nil {
			run.fail(predictionError)
			return false
		}
		if commitNeeded {
			run.recordAction(commitAction)
		} else {
			run.recordAction(skipAction)
		}
		return true
	}

	if _, addError := run.git(executionContext, cloneDirectory, gitAddArgumentConstant, licenseFileNameConstant); addError != nil {
		run.fail(newGitCommandError(run.result.Repository, stageStepConstant, addError, run.redactor))
		return false
	}

	_, diffError := run.git(executionContext, cloneDirectory, gitDiffArgumentConstant, gitCachedFlagConstant, gitQuietFlagConstant, gitPathspecSeparatorConstant, licenseFileNameConstant)
	if diffError == nil {
		run.recordAction(skipAction)
		return true
	}
	var failedError execshell.CommandFailedError
	if !errors.As(diffError, &failedError) || failedError.Result.ExitCode != stagedChangesExitCodeConstant {
		run.fail(newGitCommandError(run.result.Repository, diffStepConstant, diffError, run.redactor))
		return false
	}

	if _, commitError := run.git(executionContext, cloneDirectory, run.commitArguments()...); commitError != nil {
		run.fail(newGitCommandError(run.result.Repository, commitStepConstant, commitError, run.redactor))
		return false
	}
	run.recordAction(commitAction)
	return true
}

// predictCommit decides with read-only probes whether a real run would create a commit.
// Without network access a repository that is not cloned yet is predicted to change,
// so an upstream LICENSE the hosting metadata missed still plans a commit.
func (run *repositoryRun) predictCommit(executionContext context.Context, cloneDirectory string, cloneExisted bool) (bool, error) {
	if !cloneExisted {
		return true, nil
	}

	targetPath := filepath.Join(cloneDirectory, licenseFileNameConstant)
	existingContent, readError := afero.ReadFile(run.service.dependencies.FileSystem, targetPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return true, nil
		}
		return false, FilesystemError{Operation: inspectLicenseOperationConstant, Path: targetPath, Cause: readError}
	}
	if !bytes.Equal(existingContent, run.licenseContent) {
		return true, nil
	}

	statusResult, statusError := run.gitWithEnvironment(
		executionContext,
		cloneDirectory,
		map[string]string{optionalLocksEnvironmentKeyConstant: optionalLocksDisabledValueConstant},
		gitStatusArgumentConstant, gitPorcelainFlagConstant, gitPathspecSeparatorConstant, licenseFileNameConstant,
	)
	if statusError != nil {
		return false, newGitCommandError(run.result.Repository, statusStepConstant, statusError, run.redactor)
	}
	return len(strings.TrimSpace(statusResult.StandardOutput)) > 0, nil
}

func (run *repositoryRun) push(executionContext context.Context, cloneDirectory string) {
	action := Action{Kind: OutcomePushed, Detail: fmt.Sprintf(pushDetailTemplateConstant, gitPushReferenceConstant, gitRemoteNameConstant)}
	if run.options.DryRun {
		run.recordAction(action)
		return
	}
	_, pushError := run.gitWithEnvironment(
		executionContext,
		cloneDirectory,
		map[string]string{terminalPromptEnvironmentKeyConstant: terminalPromptDisabledValueConstant},
		gitPushArgumentConstant, gitRemoteNameConstant, gitPushReferenceConstant,
	)
	if pushError != nil {
		run.fail(newGitCommandError(run.result.Repository, pushStepConstant, pushError, run.redactor))
		return
	}
	run.recordAction(action)
}

func (run *repositoryRun) git(executionContext context.Context, workingDirectory string, arguments ...string) (execshell.ExecutionResult, error) {
	return run.gitWithEnvironment(executionContext, workingDirectory, nil, arguments...)
}

// gitWithEnvironment runs git with extra environment variables layered over the process environment.
// The status probe disables optional locks so git never refreshes the index during a dry run.
func (run *repositoryRun) gitWithEnvironment(executionContext context.Context, workingDirectory string, environment map[string]string, arguments ...string) (execshell.ExecutionResult, error) {
	return run.service.dependencies.GitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: environment,
	})
}

func (run *repositoryRun) commitArguments() []string {
	arguments := []string{gitCommitArgumentConstant}
	if !run.options.DisableSigning {
		arguments = append(arguments, gitSignFlagConstant)
	}
	return append(arguments, gitMessageFlagConstant, run.options.CommitMessage, gitPathspecSeparatorConstant, licenseFileNameConstant)
}

func (run *repositoryRun) signingLabel() string {
	if run.options.DisableSigning {
		return unsignedCommitLabelConstant
	}
	return signedCommitLabelConstant
}

func (run *repositoryRun) recordAction(action Action) {
	action.Planned = run.options.DryRun
	run.result.Actions = append(run.result.Actions, action)

	output := run.service.dependencies.Output
	name := run.result.Repository
	switch {
	case action.Kind == OutcomeSkipped && action.Planned:
		fmt.Fprintf(output, plannedSkipTemplateConstant, displayRepositoryName(name), action.Detail)
	case action.Kind == OutcomeSkipped:
		fmt.Fprintf(output, completedSkipTemplateConstant, displayRepositoryName(name), action.Detail)
	case action.Planned:
		fmt.Fprintf(output, plannedActionTemplateConstant, actionLabel(action.Kind), name, action.Detail)
	default:
		fmt.Fprintf(output, completedActionTemplateConstant, actionLabel(action.Kind), name, action.Detail)
	}
}

func (run *repositoryRun) skip(detail string) {
	run.recordAction(Action{Kind: OutcomeSkipped, Detail: detail})
}

func (run *repositoryRun) fail(failure error) {
	run.result.Error = failure
}

func actionLabel(kind OutcomeKind) string {
	switch kind {
	case OutcomeCloned:
		return cloneActionLabelConstant
	case OutcomeAlreadyPresent:
		return reuseActionLabelConstant
	case OutcomeLicenseCopied:
		return copyActionLabelConstant
	case OutcomeCommitted:
		return commitActionLabelConstant
	case OutcomePushed:
		return pushActionLabelConstant
	default:
		return strings.ToUpper(string(kind))
	}
}

func displayRepositoryName(name string) string {
	if len(name) == 0 {
		return unnamedRepositoryLabelConstant
	}
	return name
}

func isPlainDirectoryName(name string) bool {
	if name == currentDirectoryNameConstant || name == parentDirectoryNameConstant {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
