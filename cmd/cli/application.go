package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/githubauth"
	"github.com/temirov/relicense/internal/licensing"
	"github.com/temirov/relicense/internal/unlicensed"
	"github.com/temirov/relicense/internal/utils"
	flagutils "github.com/temirov/relicense/internal/utils/flags"
	pathutils "github.com/temirov/relicense/internal/utils/path"
)

const (
	applicationNameConstant                 = "relicense"
	applicationShortDescriptionConstant     = "Find unlicensed GitHub repositories and commit a LICENSE into them"
	applicationLongDescriptionConstant      = "relicense lists a user's public repositories without a license and adds a LICENSE file to each of them in one reviewable batch."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "RELICENSE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationDirectoryNameConstant      = "relicense"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	rootCommandInfoMessageConstant          = "relicense CLI executed"
	rootCommandDebugMessageConstant         = "relicense CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	toolsConfigurationKeyConstant           = "tools"
	enumeratorConfigurationKeyConstant      = toolsConfigurationKeyConstant + ".enumerator"
	licenserConfigurationKeyConstant        = toolsConfigurationKeyConstant + ".licenser"
	enumeratorCommandNameConstant           = "enumerator"
	licenserCommandNameConstant             = "licenser"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoints.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds the per-command sections.
type ApplicationToolsConfiguration struct {
	Enumerator unlicensed.CommandConfiguration `mapstructure:"enumerator"`
	Licenser   licensing.CommandConfiguration  `mapstructure:"licenser"`
}

// collaborators carries optional overrides handed to the command builders.
type collaborators struct {
	fileSystem        afero.Fs
	repositoryLister  unlicensed.RepositoryLister
	gitExecutor       licensing.GitExecutor
	environmentLookup githubauth.EnvironmentLookup
	homeExpander      *pathutils.HomeExpander
	standardOutput    io.Writer
	standardError     io.Writer
	searchPaths       []string
}

// ApplicationOption customizes an Application before its commands are built.
type ApplicationOption func(*collaborators)

// WithFileSystem routes result set, license, and clone directory access through the provided file system.
func WithFileSystem(fileSystem afero.Fs) ApplicationOption {
	return func(target *collaborators) {
		target.fileSystem = fileSystem
	}
}

// WithRepositoryLister replaces the GitHub API client used by list-unlicensed.
func WithRepositoryLister(lister unlicensed.RepositoryLister) ApplicationOption {
	return func(target *collaborators) {
		target.repositoryLister = lister
	}
}

// WithGitExecutor replaces the git executable used by add-license.
func WithGitExecutor(executor licensing.GitExecutor) ApplicationOption {
	return func(target *collaborators) {
		target.gitExecutor = executor
	}
}

// WithEnvironmentLookup replaces the process environment for token and path resolution.
func WithEnvironmentLookup(lookup githubauth.EnvironmentLookup) ApplicationOption {
	return func(target *collaborators) {
		target.environmentLookup = lookup
	}
}

// WithHomeExpander replaces the expander applied to configured paths.
func WithHomeExpander(expander *pathutils.HomeExpander) ApplicationOption {
	return func(target *collaborators) {
		target.homeExpander = expander
	}
}

// WithOutput redirects command output.
func WithOutput(standardOutput io.Writer, standardError io.Writer) ApplicationOption {
	return func(target *collaborators) {
		target.standardOutput = standardOutput
		target.standardError = standardError
	}
}

// WithConfigurationSearchPaths replaces the directories searched for config.yaml.
func WithConfigurationSearchPaths(searchPaths ...string) ApplicationOption {
	return func(target *collaborators) {
		target.searchPaths = append([]string{}, searchPaths...)
	}
}

// Application wires the Cobra command tree, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	collaborators         collaborators
}

// NewApplication assembles the relicense CLI with list-unlicensed and add-license subcommands.
func NewApplication(options ...ApplicationOption) (*Application, error) {
	application := newApplication(options)

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	enumeratorCommand, enumeratorError := application.buildEnumeratorCommand()
	if enumeratorError != nil {
		return nil, enumeratorError
	}
	rootCommand.AddCommand(enumeratorCommand)

	licenserCommand, licenserError := application.buildLicenserCommand()
	if licenserError != nil {
		return nil, licenserError
	}
	rootCommand.AddCommand(licenserCommand)

	application.mountRoot(rootCommand)
	return application, nil
}

// NewEnumeratorApplication mounts list-unlicensed as the root command of the enumerator binary.
func NewEnumeratorApplication(options ...ApplicationOption) (*Application, error) {
	application := newApplication(options)
	enumeratorCommand, buildError := application.buildEnumeratorCommand()
	if buildError != nil {
		return nil, buildError
	}
	enumeratorCommand.Use = strings.Replace(enumeratorCommand.Use, enumeratorCommand.Name(), enumeratorCommandNameConstant, 1)
	application.mountRoot(enumeratorCommand)
	return application, nil
}

// NewLicenserApplication mounts add-license as the root command of the licenser binary.
func NewLicenserApplication(options ...ApplicationOption) (*Application, error) {
	application := newApplication(options)
	licenserCommand, buildError := application.buildLicenserCommand()
	if buildError != nil {
		return nil, buildError
	}
	licenserCommand.Use = licenserCommandNameConstant
	application.mountRoot(licenserCommand)
	return application, nil
}

func newApplication(options []ApplicationOption) *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		logger:        zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(&application.collaborators)
		}
	}

	searchPaths := application.collaborators.searchPaths
	if searchPaths == nil {
		searchPaths = utils.DefaultSearchPaths(configurationDirectoryNameConstant, nil)
	}
	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		searchPaths,
	)
	application.configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	return application
}

func (application *Application) mountRoot(rootCommand *cobra.Command) {
	rootCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}
	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flagutils.FormatChoiceUsage(string(utils.LogLevelInfo), utils.SupportedLogLevels(), logLevelFlagUsageConstant),
	)
	rootCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), utils.SupportedLogFormats(), logFormatFlagUsageConstant),
	)
	if application.collaborators.standardOutput != nil {
		rootCommand.SetOut(application.collaborators.standardOutput)
	}
	if application.collaborators.standardError != nil {
		rootCommand.SetErr(application.collaborators.standardError)
	}
	application.rootCommand = rootCommand
}

func (application *Application) buildEnumeratorCommand() (*cobra.Command, error) {
	builder := unlicensed.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() unlicensed.CommandConfiguration {
			return application.configuration.Tools.Enumerator
		},
		RepositoryLister:  application.collaborators.repositoryLister,
		FileSystem:        application.collaborators.fileSystem,
		EnvironmentLookup: application.collaborators.environmentLookup,
		HomeExpander:      application.collaborators.homeExpander,
	}
	command, buildError := builder.Build()
	if buildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, enumeratorCommandNameConstant, buildError)
	}
	return command, nil
}

func (application *Application) buildLicenserCommand() (*cobra.Command, error) {
	builder := licensing.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() licensing.CommandConfiguration {
			return application.configuration.Tools.Licenser
		},
		GitExecutor:                  application.collaborators.gitExecutor,
		FileSystem:                   application.collaborators.fileSystem,
		EnvironmentLookup:            application.collaborators.environmentLookup,
		HomeExpander:                 application.collaborators.homeExpander,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
	}
	command, buildError := builder.Build()
	if buildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, licenserCommandNameConstant, buildError)
	}
	return command, nil
}

// Execute runs the command tree against the process arguments, cancelling on interrupt.
func (application *Application) Execute() error {
	executionContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.ExecuteContext(executionContext, os.Args[1:])
}

// ExecuteContext runs the command tree with the provided arguments and flushes the logger.
func (application *Application) ExecuteContext(executionContext context.Context, arguments []string) error {
	normalizedArguments := flagutils.NormalizeCommandArguments(application.rootCommand, arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)

	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Configuration exposes the resolved configuration after a command ran.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range unlicensed.DefaultConfigurationValues(enumeratorConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range licensing.DefaultConfigurationValues(licenserConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}
