package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/relicense/cmd/cli"
	"github.com/temirov/relicense/internal/execshell"
	"github.com/temirov/relicense/internal/githubapi"
	"github.com/temirov/relicense/internal/licensing"
	"github.com/temirov/relicense/internal/unlicensed"
	pathutils "github.com/temirov/relicense/internal/utils/path"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testResultSetPathConstant         = "/data/unlicensed.json"
	testLicensePathConstant           = "/templates/LICENSE"
	testLicenseContentConstant        = "MIT License\n"
	testResultSetContentConstant      = `[{"name":"a","url":"git@host:u/a.git"}]`
	testQuietLogLevelArgument         = "--log-level=error"
	testWorkdirEnvironmentName        = "RELICENSE_TOOLS_LICENSER_WORKDIR"
)

// recordingGitExecutor creates clone directories and reports staged changes so a batch commits once.
type recordingGitExecutor struct {
	fileSystem afero.Fs
	commands   [][]string
}

func (executor *recordingGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, details.Arguments)
	switch details.Arguments[0] {
	case "clone":
		return execshell.ExecutionResult{}, executor.fileSystem.MkdirAll(details.Arguments[2], 0o755)
	case "diff":
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  execshell.ExecutionResult{ExitCode: 1},
		}
	default:
		return execshell.ExecutionResult{}, nil
	}
}

func (executor *recordingGitExecutor) subcommands() []string {
	names := make([]string, 0, len(executor.commands))
	for _, arguments := range executor.commands {
		names = append(names, arguments[0])
	}
	return names
}

type stubRepositoryLister struct {
	repositories []githubapi.Repository
}

func (lister stubRepositoryLister) ListUserRepositories(context.Context, string) ([]githubapi.Repository, error) {
	return lister.repositories, nil
}

type licenserHarness struct {
	fileSystem afero.Fs
	executor   *recordingGitExecutor
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
}

func newLicenserHarness(t *testing.T) *licenserHarness {
	t.Helper()
	fileSystem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fileSystem, testLicensePathConstant, []byte(testLicenseContentConstant), 0o644))
	require.NoError(t, afero.WriteFile(fileSystem, testResultSetPathConstant, []byte(testResultSetContentConstant), 0o644))
	return &licenserHarness{
		fileSystem: fileSystem,
		executor:   &recordingGitExecutor{fileSystem: fileSystem},
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
	}
}

func (harness *licenserHarness) options(searchPath string) []cli.ApplicationOption {
	return []cli.ApplicationOption{
		cli.WithFileSystem(harness.fileSystem),
		cli.WithGitExecutor(harness.executor),
		cli.WithEnvironmentLookup(func(string) (string, bool) { return "", false }),
		cli.WithHomeExpander(pathutils.NewHomeExpanderWithLookups(
			func() (string, error) { return "/home/tester", nil },
			func(string) (string, bool) { return "", false },
		)),
		cli.WithOutput(harness.stdout, harness.stderr),
		cli.WithConfigurationSearchPaths(searchPath),
	}
}

func writeConfigurationFile(t *testing.T, directory string, content string) string {
	t.Helper()
	configurationPath := filepath.Join(directory, testConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestEmbeddedDefaultsMatchCommandDefaults(t *testing.T) {
	content, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(t, "yaml", configurationType)

	var rawConfiguration map[string]any
	require.NoError(t, yaml.Unmarshal(content, &rawConfiguration))

	var decodedConfiguration cli.ApplicationConfiguration
	require.NoError(t, mapstructure.Decode(rawConfiguration, &decodedConfiguration))

	require.Equal(t, "info", decodedConfiguration.Common.LogLevel)
	require.Equal(t, "structured", decodedConfiguration.Common.LogFormat)
	require.Equal(t, unlicensed.DefaultCommandConfiguration(), decodedConfiguration.Tools.Enumerator)
	require.Equal(t, licensing.DefaultCommandConfiguration(), decodedConfiguration.Tools.Licenser)
}

func TestLicenserApplicationConfigurationPrecedence(t *testing.T) {
	testCases := []struct {
		name                  string
		configurationContent  string
		environmentWorkdir    string
		arguments             []string
		expectedCloneLocation string
	}{
		{
			name:                  "embedded_defaults",
			arguments:             []string{},
			expectedCloneLocation: "repos/a",
		},
		{
			name:                  "configuration_file",
			configurationContent:  "tools:\n  licenser:\n    workdir: /file-work\n",
			arguments:             []string{},
			expectedCloneLocation: "/file-work/a",
		},
		{
			name:                  "environment_over_file",
			configurationContent:  "tools:\n  licenser:\n    workdir: /file-work\n",
			environmentWorkdir:    "/env-work",
			arguments:             []string{},
			expectedCloneLocation: "/env-work/a",
		},
		{
			name:                  "flag_over_environment",
			environmentWorkdir:    "/env-work",
			arguments:             []string{"--workdir", "~/flag-work"},
			expectedCloneLocation: "/home/tester/flag-work/a",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configurationDirectory := t.TempDir()
			if len(testCase.configurationContent) > 0 {
				writeConfigurationFile(t, configurationDirectory, testCase.configurationContent)
			}
			if len(testCase.environmentWorkdir) > 0 {
				t.Setenv(testWorkdirEnvironmentName, testCase.environmentWorkdir)
			}

			harness := newLicenserHarness(t)
			application, buildError := cli.NewLicenserApplication(harness.options(configurationDirectory)...)
			require.NoError(t, buildError)

			arguments := append([]string{
				testQuietLogLevelArgument,
				"--repos", testResultSetPathConstant,
				"--license-file", testLicensePathConstant,
			}, testCase.arguments...)
			require.NoError(t, application.ExecuteContext(context.Background(), arguments))

			require.Equal(t, []string{"clone", "add", "diff", "commit"}, harness.executor.subcommands())
			require.Equal(t, []string{"clone", "git@host:u/a.git", testCase.expectedCloneLocation}, harness.executor.commands[0])
		})
	}
}

func TestLicenserApplicationExplicitConfigurationFile(t *testing.T) {
	configurationPath := writeConfigurationFile(t, t.TempDir(), strings.Join([]string{
		"common:",
		"  log_level: error",
		"tools:",
		"  licenser:",
		"    repos: " + testResultSetPathConstant,
		"    license_file: " + testLicensePathConstant,
		"    workdir: /configured",
		"    push: true",
		"    no_sign: true",
		"",
	}, "\n"))

	harness := newLicenserHarness(t)
	application, buildError := cli.NewLicenserApplication(harness.options(t.TempDir())...)
	require.NoError(t, buildError)

	require.NoError(t, application.ExecuteContext(context.Background(), []string{"--config", configurationPath}))

	require.Equal(t, []string{"clone", "add", "diff", "commit", "push"}, harness.executor.subcommands())
	require.Equal(t, []string{"commit", "-m", "feat: add licence", "--", "LICENSE"}, harness.executor.commands[3])

	configuration := application.Configuration()
	require.Equal(t, "error", configuration.Common.LogLevel)
	require.True(t, configuration.Tools.Licenser.Push)
}

func TestLicenserApplicationToggleValues(t *testing.T) {
	testCases := []struct {
		name                string
		arguments           []string
		expectedSubcommands []string
	}{
		{
			name:                "push_with_separate_no",
			arguments:           []string{"--push", "no"},
			expectedSubcommands: []string{"clone", "add", "diff", "commit"},
		},
		{
			name:                "push_with_separate_yes",
			arguments:           []string{"--push", "yes"},
			expectedSubcommands: []string{"clone", "add", "diff", "commit", "push"},
		},
		{
			name:                "dry_run_bare",
			arguments:           []string{"--dry-run"},
			expectedSubcommands: []string{},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newLicenserHarness(t)
			application, buildError := cli.NewLicenserApplication(harness.options(t.TempDir())...)
			require.NoError(t, buildError)

			arguments := append([]string{
				testQuietLogLevelArgument,
				"--repos", testResultSetPathConstant,
				"--license-file", testLicensePathConstant,
			}, testCase.arguments...)
			require.NoError(t, application.ExecuteContext(context.Background(), arguments))
			require.Equal(t, testCase.expectedSubcommands, harness.executor.subcommands())
		})
	}
}

func TestLicenserApplicationRejectsUnknownLogLevel(t *testing.T) {
	harness := newLicenserHarness(t)
	application, buildError := cli.NewLicenserApplication(harness.options(t.TempDir())...)
	require.NoError(t, buildError)

	executionError := application.ExecuteContext(context.Background(), []string{"--log-level", "verbose"})
	require.Error(t, executionError)
	require.Contains(t, executionError.Error(), "unable to create logger")
	require.Empty(t, harness.executor.commands)
}

func TestEnumeratorApplicationWritesResultSet(t *testing.T) {
	fileSystem := afero.NewMemMapFs()
	stdout := &bytes.Buffer{}
	lister := stubRepositoryLister{repositories: []githubapi.Repository{
		{Name: "alpha", FullName: "octocat/alpha", SSHURL: "git@github.com:octocat/alpha.git", HasLicense: true},
		{Name: "beta", FullName: "octocat/beta", SSHURL: "git@github.com:octocat/beta.git"},
	}}

	application, buildError := cli.NewEnumeratorApplication(
		cli.WithFileSystem(fileSystem),
		cli.WithRepositoryLister(lister),
		cli.WithOutput(stdout, &bytes.Buffer{}),
		cli.WithConfigurationSearchPaths(t.TempDir()),
	)
	require.NoError(t, buildError)

	require.NoError(t, application.ExecuteContext(context.Background(), []string{testQuietLogLevelArgument, "octocat", "--out", "/reports/unlicensed.json"}))

	require.Equal(t, "Found 1 unlicensed public repo(s) for user: octocat\ngit@github.com:octocat/beta.git\n", stdout.String())
	written, readError := afero.ReadFile(fileSystem, "/reports/unlicensed.json")
	require.NoError(t, readError)
	require.Contains(t, string(written), `"name": "beta"`)
	require.NotContains(t, string(written), "alpha")
}

func TestRootApplicationListsBothCommands(t *testing.T) {
	stdout := &bytes.Buffer{}
	application, buildError := cli.NewApplication(
		cli.WithOutput(stdout, &bytes.Buffer{}),
		cli.WithConfigurationSearchPaths(t.TempDir()),
	)
	require.NoError(t, buildError)

	require.NoError(t, application.ExecuteContext(context.Background(), []string{testQuietLogLevelArgument}))

	helpOutput := stdout.String()
	require.Contains(t, helpOutput, "list-unlicensed")
	require.Contains(t, helpOutput, "add-license")
	require.Contains(t, helpOutput, "--log-format")
}

func TestRootApplicationDispatchesAddLicense(t *testing.T) {
	harness := newLicenserHarness(t)
	application, buildError := cli.NewApplication(harness.options(t.TempDir())...)
	require.NoError(t, buildError)

	require.NoError(t, application.ExecuteContext(context.Background(), []string{
		"add-license",
		testQuietLogLevelArgument,
		"--repos", testResultSetPathConstant,
		"--license-file", testLicensePathConstant,
		"--dry-run", "yes",
	}))

	require.Empty(t, harness.executor.commands)
	require.Contains(t, harness.stdout.String(), "PLAN-CLONE: a git@host:u/a.git")
}
