package unlicensed

import (
	"strings"

	"github.com/temirov/relicense/internal/githubapi"
)

const (
	defaultOutputPathConstant       = "unlicensed.json"
	configurationOutputKeyConstant  = "out"
	configurationAPIURLKeyConstant  = "api_url"
	configurationQuietKeyConstant   = "quiet"
	configurationKeySeparatorString = "."
)

// CommandConfiguration captures persisted settings for the list-unlicensed command.
type CommandConfiguration struct {
	OutputPath string `mapstructure:"out"`
	APIBaseURL string `mapstructure:"api_url"`
	Quiet      bool   `mapstructure:"quiet"`
}

// DefaultCommandConfiguration provides baseline values for the list-unlicensed command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		OutputPath: defaultOutputPathConstant,
		APIBaseURL: githubapi.DefaultBaseURLConstant,
		Quiet:      false,
	}
}

// DefaultConfigurationValues exposes defaults keyed for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorString + configurationOutputKeyConstant: defaults.OutputPath,
		rootKey + configurationKeySeparatorString + configurationAPIURLKeyConstant: defaults.APIBaseURL,
		rootKey + configurationKeySeparatorString + configurationQuietKeyConstant:  defaults.Quiet,
	}
}

// Sanitize trims values and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	defaults := DefaultCommandConfiguration()

	sanitized.OutputPath = strings.TrimSpace(configuration.OutputPath)
	if len(sanitized.OutputPath) == 0 {
		sanitized.OutputPath = defaults.OutputPath
	}
	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	if len(sanitized.APIBaseURL) == 0 {
		sanitized.APIBaseURL = defaults.APIBaseURL
	}
	return sanitized
}
