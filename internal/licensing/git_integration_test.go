package licensing_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/execshell"
	"github.com/temirov/relicense/internal/licensing"
	"github.com/temirov/relicense/internal/resultset"
)

const (
	integrationGitExecutableConstant    = "git"
	integrationRepositoryNameConstant   = "a"
	integrationSeedDirectoryConstant    = "seed"
	integrationRemoteDirectoryConstant  = "remote.git"
	integrationWorkdirDirectoryConstant = "repos"
	integrationLicenseFileNameConstant  = "LICENSE"
	integrationIdentityNameConstant     = "Relicense Tester"
	integrationIdentityEmailConstant    = "tester@example.com"
)

// gitSandbox is a bare remote seeded with one commit plus a license template on disk.
type gitSandbox struct {
	rootDirectory    string
	remoteDirectory  string
	workingDirectory string
	licensePath      string
	service          *licensing.Service
}

func newGitSandbox(testInstance *testing.T) *gitSandbox {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(integrationGitExecutableConstant); lookupError != nil {
		testInstance.Skip("git executable not available")
	}

	rootDirectory := testInstance.TempDir()
	globalConfigurationPath := filepath.Join(rootDirectory, "gitconfig")
	require.NoError(testInstance, os.WriteFile(globalConfigurationPath, nil, 0o600))
	testInstance.Setenv("GIT_CONFIG_GLOBAL", globalConfigurationPath)
	testInstance.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	testInstance.Setenv("GIT_AUTHOR_NAME", integrationIdentityNameConstant)
	testInstance.Setenv("GIT_AUTHOR_EMAIL", integrationIdentityEmailConstant)
	testInstance.Setenv("GIT_COMMITTER_NAME", integrationIdentityNameConstant)
	testInstance.Setenv("GIT_COMMITTER_EMAIL", integrationIdentityEmailConstant)

	seedDirectory := filepath.Join(rootDirectory, integrationSeedDirectoryConstant)
	remoteDirectory := filepath.Join(rootDirectory, integrationRemoteDirectoryConstant)
	runGit(testInstance, rootDirectory, "init", "-q", seedDirectory)
	require.NoError(testInstance, os.WriteFile(filepath.Join(seedDirectory, "README.md"), []byte("# a\n"), 0o644))
	runGit(testInstance, seedDirectory, "add", "README.md")
	runGit(testInstance, seedDirectory, "commit", "-q", "-m", "initial commit")
	runGit(testInstance, rootDirectory, "clone", "-q", "--bare", seedDirectory, remoteDirectory)

	licensePath := filepath.Join(rootDirectory, integrationLicenseFileNameConstant)
	require.NoError(testInstance, os.WriteFile(licensePath, []byte(testLicenseContentConstant), 0o644))

	executor, executorError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner())
	require.NoError(testInstance, executorError)
	service, serviceError := licensing.NewService(licensing.Dependencies{
		GitExecutor: executor,
		FileSystem:  afero.NewOsFs(),
		Logger:      zap.NewNop(),
	})
	require.NoError(testInstance, serviceError)

	return &gitSandbox{
		rootDirectory:    rootDirectory,
		remoteDirectory:  remoteDirectory,
		workingDirectory: filepath.Join(rootDirectory, integrationWorkdirDirectoryConstant),
		licensePath:      licensePath,
		service:          service,
	}
}

func (sandbox *gitSandbox) records() []resultset.Record {
	return []resultset.Record{{Name: integrationRepositoryNameConstant, URL: sandbox.remoteDirectory}}
}

func (sandbox *gitSandbox) options(dryRun bool) licensing.Options {
	return licensing.Options{
		WorkingDirectory: sandbox.workingDirectory,
		LicenseFilePath:  sandbox.licensePath,
		CommitMessage:    testCommitMessageConstant,
		DryRun:           dryRun,
		Push:             true,
		DisableSigning:   true,
	}
}

func (sandbox *gitSandbox) cloneDirectory() string {
	return filepath.Join(sandbox.workingDirectory, integrationRepositoryNameConstant)
}

func (sandbox *gitSandbox) process(testInstance *testing.T, dryRun bool) licensing.Result {
	testInstance.Helper()
	report, processError := sandbox.service.Process(context.Background(), sandbox.records(), sandbox.options(dryRun))
	require.NoError(testInstance, processError)
	require.Len(testInstance, report.Results, 1)
	require.NoError(testInstance, report.Results[0].Error)
	return report.Results[0]
}

func runGit(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(integrationGitExecutableConstant, arguments...)
	command.Dir = workingDirectory
	output, runError := command.CombinedOutput()
	if runError != nil {
		testInstance.Fatalf("git %s failed: %v\n%s", strings.Join(arguments, " "), runError, output)
	}
	return strings.TrimSpace(string(output))
}

func TestProcessAgainstGitRemote(testInstance *testing.T) {
	sandbox := newGitSandbox(testInstance)

	firstRun := sandbox.process(testInstance, false)
	require.Equal(testInstance, []licensing.OutcomeKind{
		licensing.OutcomeCloned,
		licensing.OutcomeLicenseCopied,
		licensing.OutcomeCommitted,
		licensing.OutcomePushed,
	}, firstRun.ActionKinds())
	require.Equal(testInstance, testCommitMessageConstant, runGit(testInstance, sandbox.remoteDirectory, "log", "-1", "--format=%s"))
	require.Equal(testInstance, strings.TrimSpace(testLicenseContentConstant), runGit(testInstance, sandbox.remoteDirectory, "show", "HEAD:LICENSE"))

	secondRun := sandbox.process(testInstance, false)
	require.Equal(testInstance, []licensing.OutcomeKind{
		licensing.OutcomeAlreadyPresent,
		licensing.OutcomeLicenseCopied,
		licensing.OutcomeSkipped,
		licensing.OutcomePushed,
	}, secondRun.ActionKinds())
	require.Equal(testInstance, "2", runGit(testInstance, sandbox.remoteDirectory, "rev-list", "--count", "HEAD"))
}

func TestProcessDryRunLeavesGitIndexUntouched(testInstance *testing.T) {
	sandbox := newGitSandbox(testInstance)
	sandbox.process(testInstance, false)

	licenseInClone := filepath.Join(sandbox.cloneDirectory(), integrationLicenseFileNameConstant)
	futureTime := time.Now().Add(5 * time.Second)
	require.NoError(testInstance, os.Chtimes(licenseInClone, futureTime, futureTime))

	indexPath := filepath.Join(sandbox.cloneDirectory(), ".git", "index")
	indexBefore, readBeforeError := os.ReadFile(indexPath)
	require.NoError(testInstance, readBeforeError)
	headBefore := runGit(testInstance, sandbox.cloneDirectory(), "rev-parse", "HEAD")
	remoteHeadBefore := runGit(testInstance, sandbox.remoteDirectory, "rev-parse", "HEAD")

	plannedRun := sandbox.process(testInstance, true)
	require.Equal(testInstance, []licensing.OutcomeKind{
		licensing.OutcomeAlreadyPresent,
		licensing.OutcomeLicenseCopied,
		licensing.OutcomeSkipped,
		licensing.OutcomePushed,
	}, plannedRun.ActionKinds())
	for _, action := range plannedRun.Actions {
		require.True(testInstance, action.Planned)
	}

	indexAfter, readAfterError := os.ReadFile(indexPath)
	require.NoError(testInstance, readAfterError)
	require.Equal(testInstance, indexBefore, indexAfter)
	require.Equal(testInstance, headBefore, runGit(testInstance, sandbox.cloneDirectory(), "rev-parse", "HEAD"))
	require.Equal(testInstance, remoteHeadBefore, runGit(testInstance, sandbox.remoteDirectory, "rev-parse", "HEAD"))
}

func TestProcessDryRunPredictsCommitForModifiedLicense(testInstance *testing.T) {
	sandbox := newGitSandbox(testInstance)
	sandbox.process(testInstance, false)

	licenseInClone := filepath.Join(sandbox.cloneDirectory(), integrationLicenseFileNameConstant)
	require.NoError(testInstance, os.WriteFile(licenseInClone, []byte("Apache License\n"), 0o644))

	plannedRun := sandbox.process(testInstance, true)
	require.Equal(testInstance, licensing.OutcomePushed, plannedRun.Outcome())
	require.Contains(testInstance, plannedRun.ActionKinds(), licensing.OutcomeCommitted)

	content, readError := os.ReadFile(licenseInClone)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "Apache License\n", string(content))
}
