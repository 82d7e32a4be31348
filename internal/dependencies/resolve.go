// Package dependencies supplies production defaults for collaborators the commands accept as overrides.
package dependencies

import (
	"context"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/execshell"
	"github.com/temirov/relicense/internal/ui"
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing afero.Fs) afero.Fs {
	if existing != nil {
		return existing
	}
	return afero.NewOsFs()
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
// With human-readable logging the executor stays silent and a console observer reports
// each git step; otherwise the executor emits structured entries itself. The token is
// masked in both paths.
func ResolveGitExecutor(existing GitExecutor, logger *zap.Logger, humanReadable bool, token string) (GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	executorLogger := logger
	options := []execshell.ExecutorOption{execshell.WithRedactedValues(token)}
	if humanReadable {
		executorLogger = zap.NewNop()
		options = append(options, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(executorLogger, execshell.NewOSCommandRunner(), options...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}
