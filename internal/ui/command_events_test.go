package ui_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/relicense/internal/execshell"
	"github.com/temirov/relicense/internal/ui"
)

const (
	testRepositoryDirectoryConstant        = "/work/alpha"
	testLicenseFileNameConstant            = "LICENSE"
	testExecutionFailureReasonConstant     = "execution failed"
	testStandardErrorMessageConstant       = "fatal: pathspec did not match"
	testStartMessageExpectationConstant    = "Staging LICENSE in /work/alpha"
	testSuccessMessageExpectationConstant  = "Staged LICENSE in /work/alpha"
	testFailureMessageExpectationConstant  = "Failed to stage LICENSE in /work/alpha (exit code 128: " + testStandardErrorMessageConstant + ")"
	testExecutionFailureMessageExpectation = "Unable to stage LICENSE in /work/alpha: " + testExecutionFailureReasonConstant
	testStagedChangesMessageExpectation    = "Staged changes to LICENSE present in /work/alpha (exit code 1)"
	testCloneStartMessageExpectation       = "Cloning https://github.com/octocat/alpha.git into /work/alpha"
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	addCommand := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:        []string{"add", testLicenseFileNameConstant},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}
	diffCommand := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:        []string{"diff", "--cached", "--quiet", "--", testLicenseFileNameConstant},
			WorkingDirectory: testRepositoryDirectoryConstant,
		},
	}
	cloneCommand := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments: []string{"clone", "https://token-value@github.com/octocat/alpha.git", testRepositoryDirectoryConstant},
		},
	}

	testCases := []struct {
		name            string
		invoke          func(logger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
	}{
		{
			name: "command_started",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(addCommand)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testStartMessageExpectationConstant,
		},
		{
			name: "command_completed_success",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(addCommand, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testSuccessMessageExpectationConstant,
		},
		{
			name: "command_completed_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(addCommand, execshell.ExecutionResult{ExitCode: 128, StandardError: testStandardErrorMessageConstant})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testFailureMessageExpectationConstant,
		},
		{
			name: "staged_changes_probe",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandCompleted(diffCommand, execshell.ExecutionResult{ExitCode: 1})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testStagedChangesMessageExpectation,
		},
		{
			name: "clone_started_without_credentials",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandStarted(cloneCommand)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testCloneStartMessageExpectation,
		},
		{
			name: "command_execution_failure",
			invoke: func(logger *ui.ConsoleCommandEventLogger) {
				logger.CommandExecutionFailed(addCommand, errors.New(testExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testExecutionFailureMessageExpectation,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(testInstance, entries, 1)
			require.Equal(testInstance, testCase.expectedLevel, entries[0].Level)
			require.Equal(testInstance, testCase.expectedMessage, entries[0].Message)
		})
	}
}

func TestNilConsoleCommandEventLoggerIgnoresEvents(testInstance *testing.T) {
	var eventLogger *ui.ConsoleCommandEventLogger
	require.NotPanics(testInstance, func() {
		eventLogger.CommandStarted(execshell.ShellCommand{Name: execshell.CommandGit})
		eventLogger.CommandCompleted(execshell.ShellCommand{Name: execshell.CommandGit}, execshell.ExecutionResult{})
		eventLogger.CommandExecutionFailed(execshell.ShellCommand{Name: execshell.CommandGit}, nil)
	})
}
