package licensing

import "strings"

const (
	configurationRepositoriesKeyConstant = "repos"
	configurationWorkdirKeyConstant      = "workdir"
	configurationLicenseFileKeyConstant  = "license_file"
	configurationMessageKeyConstant      = "message"
	configurationDryRunKeyConstant       = "dry_run"
	configurationNoSSHKeyConstant        = "no_ssh"
	configurationPushKeyConstant         = "push"
	configurationNoSignKeyConstant       = "no_sign"
	configurationKeySeparatorConstant    = "."
	defaultRepositoriesPathConstant      = "unlicensed.json"
)

// CommandConfiguration captures persisted settings for the add-license command.
type CommandConfiguration struct {
	RepositoriesPath string `mapstructure:"repos"`
	WorkingDirectory string `mapstructure:"workdir"`
	LicenseFilePath  string `mapstructure:"license_file"`
	CommitMessage    string `mapstructure:"message"`
	DryRun           bool   `mapstructure:"dry_run"`
	NoSSH            bool   `mapstructure:"no_ssh"`
	Push             bool   `mapstructure:"push"`
	NoSign           bool   `mapstructure:"no_sign"`
}

// DefaultCommandConfiguration provides baseline values for the add-license command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoriesPath: defaultRepositoriesPathConstant,
		WorkingDirectory: defaultWorkingDirectoryConstant,
		LicenseFilePath:  defaultLicenseFilePathConstant,
		CommitMessage:    defaultCommitMessageConstant,
	}
}

// DefaultConfigurationValues exposes defaults keyed for the configuration loader.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationRepositoriesKeyConstant: defaults.RepositoriesPath,
		prefix + configurationWorkdirKeyConstant:      defaults.WorkingDirectory,
		prefix + configurationLicenseFileKeyConstant:  defaults.LicenseFilePath,
		prefix + configurationMessageKeyConstant:      defaults.CommitMessage,
		prefix + configurationDryRunKeyConstant:       defaults.DryRun,
		prefix + configurationNoSSHKeyConstant:        defaults.NoSSH,
		prefix + configurationPushKeyConstant:         defaults.Push,
		prefix + configurationNoSignKeyConstant:       defaults.NoSign,
	}
}

// Sanitize trims values and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	defaults := DefaultCommandConfiguration()

	sanitized.RepositoriesPath = strings.TrimSpace(configuration.RepositoriesPath)
	if len(sanitized.RepositoriesPath) == 0 {
		sanitized.RepositoriesPath = defaults.RepositoriesPath
	}
	sanitized.WorkingDirectory = strings.TrimSpace(configuration.WorkingDirectory)
	if len(sanitized.WorkingDirectory) == 0 {
		sanitized.WorkingDirectory = defaults.WorkingDirectory
	}
	sanitized.LicenseFilePath = strings.TrimSpace(configuration.LicenseFilePath)
	if len(sanitized.LicenseFilePath) == 0 {
		sanitized.LicenseFilePath = defaults.LicenseFilePath
	}
	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = defaults.CommitMessage
	}
	return sanitized
}

// Options converts the configuration into service options carrying the resolved token.
func (configuration CommandConfiguration) Options(token string) Options {
	return Options{
		WorkingDirectory: configuration.WorkingDirectory,
		LicenseFilePath:  configuration.LicenseFilePath,
		CommitMessage:    configuration.CommitMessage,
		DryRun:           configuration.DryRun,
		DisableSSH:       configuration.NoSSH,
		Token:            token,
		Push:             configuration.Push,
		DisableSigning:   configuration.NoSign,
	}
}
