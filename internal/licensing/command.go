package licensing

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/dependencies"
	"github.com/temirov/relicense/internal/githubauth"
	"github.com/temirov/relicense/internal/resultset"
	flagutils "github.com/temirov/relicense/internal/utils/flags"
	pathutils "github.com/temirov/relicense/internal/utils/path"
)

const (
	commandUseConstant                  = "add-license"
	commandShortDescriptionConstant     = "Commit a LICENSE file into every repository of a result set"
	commandLongDescriptionConstant      = "add-license reads the JSON result set written by list-unlicensed, clones or reuses each repository under the working directory, copies the license file in, commits it, and optionally pushes."
	repositoriesFlagNameConstant        = "repos"
	repositoriesFlagDescriptionConstant = "Path of the JSON result set to read"
	workdirFlagNameConstant             = "workdir"
	workdirFlagDescriptionConstant      = "Directory holding the repository clones"
	licenseFileFlagNameConstant         = "license-file"
	licenseFileFlagDescriptionConstant  = "License file copied into each repository"
	messageFlagNameConstant             = "message"
	messageFlagDescriptionConstant      = "Commit message"
	tokenFlagNameConstant               = "token"
	tokenFlagDescriptionConstant        = "GitHub token for HTTPS remotes (defaults to GITHUB_TOKEN, then GH_TOKEN)"
	dryRunFlagNameConstant              = "dry-run"
	dryRunFlagDescriptionConstant       = "Print the planned actions without changing anything"
	noSSHFlagNameConstant               = "no-ssh"
	noSSHFlagDescriptionConstant        = "Clone over HTTPS instead of SSH"
	pushFlagNameConstant                = "push"
	pushFlagDescriptionConstant         = "Push the commit to origin"
	noSignFlagNameConstant              = "no-sign"
	noSignFlagDescriptionConstant       = "Create unsigned commits"
	resultSetLoadedMessageConstant      = "result set loaded"
	logFieldRepositoriesPathConstant    = "repositories_path"
	logFieldRecordCountConstant         = "records"
	logFieldTokenSourceConstant         = "token_source"
	tokenResolvedMessageConstant        = "github token resolved"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the add-license command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	GitExecutor                  GitExecutor
	FileSystem                   afero.Fs
	EnvironmentLookup            githubauth.EnvironmentLookup
	HomeExpander                 *pathutils.HomeExpander
	HumanReadableLoggingProvider func() bool
}

// Build constructs the add-license command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(repositoriesFlagNameConstant, defaults.RepositoriesPath, repositoriesFlagDescriptionConstant)
	command.Flags().String(workdirFlagNameConstant, defaults.WorkingDirectory, workdirFlagDescriptionConstant)
	command.Flags().String(licenseFileFlagNameConstant, defaults.LicenseFilePath, licenseFileFlagDescriptionConstant)
	command.Flags().String(messageFlagNameConstant, defaults.CommitMessage, messageFlagDescriptionConstant)
	command.Flags().String(tokenFlagNameConstant, "", tokenFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, dryRunFlagNameConstant, "", defaults.DryRun, dryRunFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, noSSHFlagNameConstant, "", defaults.NoSSH, noSSHFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, pushFlagNameConstant, "", defaults.Push, pushFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, noSignFlagNameConstant, "", defaults.NoSign, noSignFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, flagError := builder.applyFlags(command, builder.resolveConfiguration())
	if flagError != nil {
		return flagError
	}
	configuration = configuration.Sanitize()

	homeExpander := builder.resolveHomeExpander()
	configuration.RepositoriesPath = homeExpander.Expand(configuration.RepositoriesPath)
	configuration.WorkingDirectory = homeExpander.Expand(configuration.WorkingDirectory)
	configuration.LicenseFilePath = homeExpander.Expand(configuration.LicenseFilePath)

	tokenFlagValue, tokenFlagError := command.Flags().GetString(tokenFlagNameConstant)
	if tokenFlagError != nil {
		return tokenFlagError
	}
	token, tokenSource := githubauth.ResolveToken(tokenFlagValue, builder.EnvironmentLookup)

	logger := builder.resolveLogger()
	logger.Debug(tokenResolvedMessageConstant, zap.String(logFieldTokenSourceConstant, string(tokenSource)))

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	records, readError := resultset.NewStore(fileSystem).Read(configuration.RepositoriesPath)
	if readError != nil {
		return readError
	}
	logger.Info(
		resultSetLoadedMessageConstant,
		zap.String(logFieldRepositoriesPathConstant, configuration.RepositoriesPath),
		zap.Int(logFieldRecordCountConstant, len(records)),
	)

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.humanReadableLogging(), token)
	if executorError != nil {
		return executorError
	}

	service, serviceError := NewService(Dependencies{
		GitExecutor: gitExecutor,
		FileSystem:  fileSystem,
		Output:      command.OutOrStdout(),
		Logger:      logger,
	})
	if serviceError != nil {
		return serviceError
	}

	report, processError := service.Process(command.Context(), records, configuration.Options(token))
	if processError != nil {
		return processError
	}

	report.Render(command.OutOrStdout())
	return report.Err()
}

func (builder *CommandBuilder) applyFlags(command *cobra.Command, configuration CommandConfiguration) (CommandConfiguration, error) {
	stringTargets := map[string]*string{
		repositoriesFlagNameConstant: &configuration.RepositoriesPath,
		workdirFlagNameConstant:      &configuration.WorkingDirectory,
		licenseFileFlagNameConstant:  &configuration.LicenseFilePath,
		messageFlagNameConstant:      &configuration.CommitMessage,
	}
	for flagName, target := range stringTargets {
		if !command.Flags().Changed(flagName) {
			continue
		}
		value, getError := command.Flags().GetString(flagName)
		if getError != nil {
			return configuration, getError
		}
		*target = value
	}

	toggleTargets := map[string]*bool{
		dryRunFlagNameConstant: &configuration.DryRun,
		noSSHFlagNameConstant:  &configuration.NoSSH,
		pushFlagNameConstant:   &configuration.Push,
		noSignFlagNameConstant: &configuration.NoSign,
	}
	for flagName, target := range toggleTargets {
		if !command.Flags().Changed(flagName) {
			continue
		}
		value, getError := command.Flags().GetBool(flagName)
		if getError != nil {
			return configuration, getError
		}
		*target = value
	}
	return configuration, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveHomeExpander() *pathutils.HomeExpander {
	if builder.HomeExpander != nil {
		return builder.HomeExpander
	}
	return pathutils.NewHomeExpander()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}
