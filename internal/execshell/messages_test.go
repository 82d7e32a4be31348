package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForCloneStripsCredentials(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"clone", "https://secret@github.com/octocat/alpha.git", "/work/alpha"},
			WorkingDirectory: "/work",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Cloning https://github.com/octocat/alpha.git into /work/alpha", message)
}

func TestBuildMessagesForLicenseWorkflowCommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	testCases := []struct {
		name      string
		arguments []string
		build     func(ShellCommand) string
		expected  string
	}{
		{
			name:      "add_started",
			arguments: []string{"add", "LICENSE"},
			build:     formatter.BuildStartedMessage,
			expected:  "Staging LICENSE in /work/alpha",
		},
		{
			name:      "staged_diff_success",
			arguments: []string{"diff", "--cached", "--quiet", "--", "LICENSE"},
			build:     formatter.BuildSuccessMessage,
			expected:  "No staged changes to LICENSE in /work/alpha",
		},
		{
			name:      "status_started",
			arguments: []string{"status", "--porcelain", "--", "LICENSE"},
			build:     formatter.BuildStartedMessage,
			expected:  "Reviewing working tree status of LICENSE in /work/alpha",
		},
		{
			name:      "signed_commit_started",
			arguments: []string{"commit", "-S", "-m", "feat: add licence", "--", "LICENSE"},
			build:     formatter.BuildStartedMessage,
			expected:  "Creating signed commit in /work/alpha with message \"feat: add licence\"",
		},
		{
			name:      "unsigned_commit_started",
			arguments: []string{"commit", "-m", "feat: add licence", "--", "LICENSE"},
			build:     formatter.BuildStartedMessage,
			expected:  "Creating commit in /work/alpha with message \"feat: add licence\"",
		},
		{
			name:      "push_success",
			arguments: []string{"push", "origin", "HEAD"},
			build:     formatter.BuildSuccessMessage,
			expected:  "Pushed HEAD to origin from /work/alpha",
		},
		{
			name:      "unknown_subcommand",
			arguments: []string{"rev-parse", "HEAD"},
			build:     formatter.BuildStartedMessage,
			expected:  "Running git rev-parse HEAD (in /work/alpha)",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: testCase.arguments, WorkingDirectory: "/work/alpha"},
			}
			require.Equal(t, testCase.expected, testCase.build(command))
		})
	}
}

func TestBuildFailureMessagesIncludeStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"push", "origin", "HEAD"}, WorkingDirectory: "/work/alpha"},
	}

	failureMessage := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 128, StandardError: "  permission denied \n"})
	require.Equal(t, "Failed to push HEAD to origin from /work/alpha (exit code 128: permission denied)", failureMessage)

	executionMessage := formatter.BuildExecutionFailureMessage(command, errors.New("git executable not found"))
	require.Equal(t, "Unable to push HEAD to origin from /work/alpha: git executable not found", executionMessage)
}

func TestIndicatesStagedChanges(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		exitCode  int
		expected  bool
	}{
		{name: "staged_probe_exit_one", arguments: []string{"diff", "--cached", "--quiet", "--", "LICENSE"}, exitCode: 1, expected: true},
		{name: "staged_probe_clean", arguments: []string{"diff", "--cached", "--quiet", "--", "LICENSE"}, exitCode: 0, expected: false},
		{name: "staged_probe_fatal", arguments: []string{"diff", "--cached", "--quiet", "--", "LICENSE"}, exitCode: 128, expected: false},
		{name: "unstaged_diff", arguments: []string{"diff", "--quiet"}, exitCode: 1, expected: false},
		{name: "commit_failure", arguments: []string{"commit", "-m", "msg"}, exitCode: 1, expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: testCase.arguments}}
			require.Equal(t, testCase.expected, IndicatesStagedChanges(command, ExecutionResult{ExitCode: testCase.exitCode}))
		})
	}
}
