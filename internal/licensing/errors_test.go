package licensing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/relicense/internal/execshell"
)

func TestGitCommandErrorMessages(testInstance *testing.T) {
	failedClone := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: unable to access 'https://secret@github.com/o/r.git/'\n"},
	}
	testCases := []struct {
		name     string
		cause    error
		expected string
	}{
		{
			name:     "failed_command_with_stderr",
			cause:    failedClone,
			expected: "git clone failed for alpha (exit code 128): fatal: unable to access 'https://REDACTED@github.com/o/r.git/'",
		},
		{
			name:     "execution_error",
			cause:    errors.New("exec: git: secret missing"),
			expected: "git clone failed for alpha: exec: git: REDACTED missing",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			commandError := newGitCommandError("alpha", cloneStepConstant, testCase.cause, newSecretRedactor("secret"))
			require.EqualError(testInstance, commandError, testCase.expected)
			require.NotNil(testInstance, errors.Unwrap(commandError))
		})
	}
}

func TestBatchFailedErrorMessage(testInstance *testing.T) {
	require.EqualError(testInstance, BatchFailedError{FailedRepositories: []string{"alpha"}}, "license application failed for 1 repository: alpha")
	require.EqualError(testInstance, BatchFailedError{FailedRepositories: []string{"alpha", "beta"}}, "license application failed for 2 repositories: alpha, beta")
}

func TestFilesystemErrorUnwraps(testInstance *testing.T) {
	cause := errors.New("permission denied")
	filesystemError := FilesystemError{Operation: writeLicenseOperationConstant, Path: "/work/alpha/LICENSE", Cause: cause}
	require.EqualError(testInstance, filesystemError, "unable to write license file /work/alpha/LICENSE: permission denied")
	require.ErrorIs(testInstance, filesystemError, cause)
}
