package licensing_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/relicense/internal/execshell"
)

const (
	fakeLicenseFileNameConstant     = "LICENSE"
	fakeModifiedStatusLineConstant  = " M LICENSE\n"
	fakeUntrackedStatusLineConstant = "?? LICENSE\n"
)

// fakeGit simulates the git subcommands the licenser issues against an in-memory file system.
type fakeGit struct {
	fileSystem     afero.Fs
	commands       []execshell.CommandDetails
	failingClones  map[string]string
	failingPushes  map[string]bool
	staged         map[string][]byte
	committed      map[string][]byte
	executionError error
}

func newFakeGit(fileSystem afero.Fs) *fakeGit {
	return &fakeGit{
		fileSystem:    fileSystem,
		failingClones: map[string]string{},
		failingPushes: map[string]bool{},
		staged:        map[string][]byte{},
		committed:     map[string][]byte{},
	}
}

func (git *fakeGit) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	git.commands = append(git.commands, details)
	if git.executionError != nil {
		return execshell.ExecutionResult{}, git.executionError
	}

	arguments := details.Arguments
	switch arguments[0] {
	case "clone":
		source, destination := arguments[1], arguments[2]
		if standardError, failing := git.failingClones[source]; failing {
			return git.fail(details, 128, standardError)
		}
		if mkdirError := git.fileSystem.MkdirAll(destination, 0o755); mkdirError != nil {
			return execshell.ExecutionResult{}, mkdirError
		}
		return execshell.ExecutionResult{}, nil
	case "add":
		content, readError := afero.ReadFile(git.fileSystem, git.licensePath(details))
		if readError != nil {
			return git.fail(details, 128, "fatal: pathspec 'LICENSE' did not match any files")
		}
		git.staged[details.WorkingDirectory] = content
		return execshell.ExecutionResult{}, nil
	case "diff":
		staged, hasStaged := git.staged[details.WorkingDirectory]
		committed, hasCommitted := git.committed[details.WorkingDirectory]
		if hasStaged == hasCommitted && bytes.Equal(staged, committed) {
			return execshell.ExecutionResult{}, nil
		}
		return git.fail(details, 1, "")
	case "commit":
		git.committed[details.WorkingDirectory] = git.staged[details.WorkingDirectory]
		return execshell.ExecutionResult{StandardOutput: "[main 1a2b3c4] add license\n"}, nil
	case "status":
		content, readError := afero.ReadFile(git.fileSystem, git.licensePath(details))
		if readError != nil {
			return execshell.ExecutionResult{}, nil
		}
		committed, hasCommitted := git.committed[details.WorkingDirectory]
		if !hasCommitted {
			return execshell.ExecutionResult{StandardOutput: fakeUntrackedStatusLineConstant}, nil
		}
		if !bytes.Equal(content, committed) {
			return execshell.ExecutionResult{StandardOutput: fakeModifiedStatusLineConstant}, nil
		}
		return execshell.ExecutionResult{}, nil
	case "push":
		if git.failingPushes[details.WorkingDirectory] {
			return git.fail(details, 1, "error: failed to push some refs")
		}
		return execshell.ExecutionResult{}, nil
	default:
		return execshell.ExecutionResult{}, errors.New("unexpected git subcommand " + arguments[0])
	}
}

func (git *fakeGit) fail(details execshell.CommandDetails, exitCode int, standardError string) (execshell.ExecutionResult, error) {
	result := execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError}
	return execshell.ExecutionResult{}, execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
		Result:  result,
	}
}

func (git *fakeGit) licensePath(details execshell.CommandDetails) string {
	return filepath.Join(details.WorkingDirectory, fakeLicenseFileNameConstant)
}

// subcommands lists the first argument of every recorded invocation.
func (git *fakeGit) subcommands() []string {
	names := make([]string, 0, len(git.commands))
	for _, details := range git.commands {
		names = append(names, details.Arguments[0])
	}
	return names
}

func (git *fakeGit) commandLine(index int) string {
	return strings.Join(git.commands[index].Arguments, " ")
}
