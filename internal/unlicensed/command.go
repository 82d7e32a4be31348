package unlicensed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/githubapi"
	"github.com/temirov/relicense/internal/githubauth"
	"github.com/temirov/relicense/internal/resultset"
	pathutils "github.com/temirov/relicense/internal/utils/path"
)

const (
	commandUseConstant              = "list-unlicensed <username>"
	commandShortDescriptionConstant = "List a user's public repositories that have no license"
	commandLongDescriptionConstant  = "list-unlicensed pages through a GitHub user's public repositories, keeps those whose license metadata is empty, and writes them to a JSON result set consumed by add-license."
	outputFlagNameConstant          = "out"
	outputFlagDescriptionConstant   = "Path of the JSON result set to write"
	tokenFlagNameConstant           = "token"
	tokenFlagDescriptionConstant    = "GitHub token (defaults to GITHUB_TOKEN, then GH_TOKEN)"
	apiURLFlagNameConstant          = "api-url"
	apiURLFlagDescriptionConstant   = "GitHub REST API base URL"
	quietFlagNameConstant           = "quiet"
	quietFlagDescriptionConstant    = "Print only repository URLs"
	missingUsernameMessageConstant  = "username is required"
	foundSummaryTemplateConstant    = "Found %d unlicensed public repo(s) for user: %s\n"
	noRepositoriesMessageConstant   = "No unlicensed public repos found."
	tokenResolvedMessageConstant    = "github token resolved"
	logFieldTokenSourceConstant     = "token_source"
	logFieldAPIURLConstant          = "api_url"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the list-unlicensed command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	RepositoryLister      RepositoryLister
	FileSystem            afero.Fs
	EnvironmentLookup     githubauth.EnvironmentLookup
	HomeExpander          *pathutils.HomeExpander
}

// Build constructs the list-unlicensed command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(outputFlagNameConstant, defaults.OutputPath, outputFlagDescriptionConstant)
	command.Flags().String(tokenFlagNameConstant, "", tokenFlagDescriptionConstant)
	command.Flags().String(apiURLFlagNameConstant, defaults.APIBaseURL, apiURLFlagDescriptionConstant)
	command.Flags().Bool(quietFlagNameConstant, defaults.Quiet, quietFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	username := ""
	if len(arguments) > 0 {
		username = strings.TrimSpace(arguments[0])
	}
	if len(username) == 0 {
		_ = command.Help()
		return errors.New(missingUsernameMessageConstant)
	}

	if command.Flags().Changed(outputFlagNameConstant) {
		outputPath, flagError := command.Flags().GetString(outputFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.OutputPath = outputPath
	}
	if command.Flags().Changed(apiURLFlagNameConstant) {
		apiURL, flagError := command.Flags().GetString(apiURLFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.APIBaseURL = apiURL
	}
	if command.Flags().Changed(quietFlagNameConstant) {
		quiet, flagError := command.Flags().GetBool(quietFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.Quiet = quiet
	}
	configuration = configuration.Sanitize()

	tokenFlagValue, tokenFlagError := command.Flags().GetString(tokenFlagNameConstant)
	if tokenFlagError != nil {
		return tokenFlagError
	}
	token, tokenSource := githubauth.ResolveToken(tokenFlagValue, builder.EnvironmentLookup)

	logger := builder.resolveLogger()
	logger.Debug(
		tokenResolvedMessageConstant,
		zap.String(logFieldTokenSourceConstant, string(tokenSource)),
		zap.String(logFieldAPIURLConstant, configuration.APIBaseURL),
	)

	lister := builder.RepositoryLister
	if lister == nil {
		apiClient, clientError := githubapi.NewClient(command.Context(), githubapi.ClientOptions{
			Token:   token,
			BaseURL: configuration.APIBaseURL,
		})
		if clientError != nil {
			return clientError
		}
		lister = apiClient
	}

	service, serviceError := NewService(Dependencies{
		Lister: lister,
		Writer: resultset.NewStore(builder.resolveFileSystem()),
		Logger: logger,
	})
	if serviceError != nil {
		return serviceError
	}

	outputPath := builder.resolveHomeExpander().Expand(configuration.OutputPath)
	records, runError := service.Run(command.Context(), Options{Username: username, OutputPath: outputPath})
	if runError != nil {
		return runError
	}

	if !configuration.Quiet {
		fmt.Fprintf(command.OutOrStdout(), foundSummaryTemplateConstant, len(records), username)
	}
	for _, record := range records {
		fmt.Fprintln(command.OutOrStdout(), record.URL)
	}
	if len(records) == 0 && !configuration.Quiet {
		fmt.Fprintln(command.ErrOrStderr(), noRepositoriesMessageConstant)
	}
	return nil
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

func (builder *CommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return afero.NewOsFs()
}

func (builder *CommandBuilder) resolveHomeExpander() *pathutils.HomeExpander {
	if builder.HomeExpander != nil {
		return builder.HomeExpander
	}
	return pathutils.NewHomeExpander()
}
