package unlicensed

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/relicense/internal/githubapi"
	"github.com/temirov/relicense/internal/gitrepo"
	"github.com/temirov/relicense/internal/resultset"
)

const (
	repositoryListerMissingMessageConstant  = "repository lister not configured"
	resultWriterMissingMessageConstant      = "result writer not configured"
	enumerationCompletedMessageConstant     = "repository enumeration completed"
	privateRepositorySkippedMessageConstant = "skipping private repository"
	duplicateRepositorySkippedMessage       = "skipping duplicate repository"
	logFieldUsernameConstant                = "username"
	logFieldRepositoryConstant              = "repository"
	logFieldListedCountConstant             = "listed"
	logFieldUnlicensedCountConstant         = "unlicensed"
	logFieldOutputPathConstant              = "output_path"
	resultSetWrittenMessageConstant         = "result set written"
)

var (
	// ErrRepositoryListerNotConfigured indicates the service was built without a repository lister.
	ErrRepositoryListerNotConfigured = errors.New(repositoryListerMissingMessageConstant)
	// ErrResultWriterNotConfigured indicates the service was built without a result writer.
	ErrResultWriterNotConfigured = errors.New(resultWriterMissingMessageConstant)
)

// RepositoryLister lists a user's repositories in API order.
type RepositoryLister interface {
	ListUserRepositories(executionContext context.Context, username string) ([]githubapi.Repository, error)
}

// ResultWriter persists the unlicensed repository records.
type ResultWriter interface {
	Write(path string, records []resultset.Record) error
}

// Dependencies supplies collaborators for the enumeration service.
type Dependencies struct {
	Lister RepositoryLister
	Writer ResultWriter
	Logger *zap.Logger
}

// Options configures a single enumeration run.
type Options struct {
	Username   string
	OutputPath string
}

// Service finds public repositories without a registered license.
type Service struct {
	dependencies Dependencies
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Lister == nil {
		return nil, ErrRepositoryListerNotConfigured
	}
	if dependencies.Writer == nil {
		return nil, ErrResultWriterNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	return &Service{dependencies: dependencies}, nil
}

// Run enumerates unlicensed repositories and writes them to the output path.
// Nothing is written when enumeration fails.
func (service *Service) Run(executionContext context.Context, options Options) ([]resultset.Record, error) {
	records, enumerationError := service.Enumerate(executionContext, options.Username)
	if enumerationError != nil {
		return nil, enumerationError
	}
	if writeError := service.dependencies.Writer.Write(options.OutputPath, records); writeError != nil {
		return nil, writeError
	}
	service.dependencies.Logger.Info(
		resultSetWrittenMessageConstant,
		zap.String(logFieldOutputPathConstant, options.OutputPath),
		zap.Int(logFieldUnlicensedCountConstant, len(records)),
	)
	return records, nil
}

// Enumerate returns one record per unlicensed public repository, in API order.
func (service *Service) Enumerate(executionContext context.Context, username string) ([]resultset.Record, error) {
	repositories, listError := service.dependencies.Lister.ListUserRepositories(executionContext, username)
	if listError != nil {
		return nil, listError
	}

	records := make([]resultset.Record, 0)
	seenNames := make(map[string]struct{}, len(repositories))
	for _, repository := range repositories {
		if repository.Private {
			service.dependencies.Logger.Debug(privateRepositorySkippedMessageConstant, zap.String(logFieldRepositoryConstant, repository.FullName))
			continue
		}
		if repository.HasLicense {
			continue
		}
		if _, seen := seenNames[repository.Name]; seen {
			service.dependencies.Logger.Debug(duplicateRepositorySkippedMessage, zap.String(logFieldRepositoryConstant, repository.FullName))
			continue
		}
		seenNames[repository.Name] = struct{}{}
		records = append(records, buildRecord(repository))
	}

	service.dependencies.Logger.Info(
		enumerationCompletedMessageConstant,
		zap.String(logFieldUsernameConstant, username),
		zap.Int(logFieldListedCountConstant, len(repositories)),
		zap.Int(logFieldUnlicensedCountConstant, len(records)),
	)
	return records, nil
}

func buildRecord(repository githubapi.Repository) resultset.Record {
	record := resultset.Record{
		Name:       repository.Name,
		URL:        strings.TrimSpace(repository.SSHURL),
		HTTPSURL:   strings.TrimSpace(repository.CloneURL),
		FullName:   repository.FullName,
		HasLicense: repository.HasLicense,
	}
	if len(record.URL) > 0 {
		return record
	}
	remote, parseError := gitrepo.ParseFullName(hostFromHTMLURL(repository.HTMLURL), repository.FullName)
	if parseError != nil {
		record.URL = record.HTTPSURL
		return record
	}
	if sshURL, formatError := gitrepo.FormatRemoteURL(remote); formatError == nil {
		record.URL = sshURL
	}
	return record
}

func hostFromHTMLURL(htmlURL string) string {
	remote, parseError := gitrepo.ParseRemoteURL(htmlURL)
	if parseError != nil {
		return ""
	}
	return remote.Host
}
