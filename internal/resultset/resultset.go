package resultset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/relicense/internal/gitrepo"
)

const (
	temporaryFilePatternTemplateConstant = ".%s-*.tmp"
	outputDirectoryPermissionsConstant   = 0o755
	outputFilePermissionsConstant        = 0o644
	jsonIndentConstant                   = "  "
	missingPathMessageConstant           = "result set path not provided"
	missingFileSystemMessageConstant     = "result set file system not configured"
	readErrorTemplateConstant            = "unable to read result set %s: %w"
	decodeErrorTemplateConstant          = "unable to parse result set %s: %w"
	encodeErrorTemplateConstant          = "unable to encode result set: %w"
	writeErrorTemplateConstant           = "unable to write result set %s: %w"
	fullNameSeparatorConstant            = "/"
	newlineConstant                      = "\n"
)

var (
	// ErrPathNotProvided indicates the result set path was empty.
	ErrPathNotProvided = errors.New(missingPathMessageConstant)
	// ErrFileSystemNotConfigured indicates the store was built without a file system.
	ErrFileSystemNotConfigured = errors.New(missingFileSystemMessageConstant)
)

// Record describes one repository in the result set.
type Record struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	HTTPSURL   string `json:"https_url,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	HasLicense bool   `json:"-"`
}

// storedRecord accepts both the current field names and the html_url form written by earlier tooling.
type storedRecord struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	HTTPSURL string `json:"https_url"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	SSHURL   string `json:"ssh_url"`
	CloneURL string `json:"clone_url"`
}

// Store reads and writes result set files.
type Store struct {
	fileSystem afero.Fs
}

// NewStore constructs a Store backed by the provided file system.
func NewStore(fileSystem afero.Fs) *Store {
	return &Store{fileSystem: fileSystem}
}

// Write serializes records as an indented JSON array. The target is replaced atomically,
// so a failed write leaves any previous file untouched and never leaves a partial one.
func (store *Store) Write(path string, records []Record) error {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return ErrPathNotProvided
	}
	if store == nil || store.fileSystem == nil {
		return ErrFileSystemNotConfigured
	}

	if records == nil {
		records = []Record{}
	}
	encodedRecords, encodeError := json.MarshalIndent(records, "", jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(encodeErrorTemplateConstant, encodeError)
	}
	encodedRecords = append(encodedRecords, newlineConstant...)

	directory := filepath.Dir(trimmedPath)
	if mkdirError := store.fileSystem.MkdirAll(directory, outputDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, trimmedPath, mkdirError)
	}

	temporaryFile, createError := afero.TempFile(store.fileSystem, directory, fmt.Sprintf(temporaryFilePatternTemplateConstant, filepath.Base(trimmedPath)))
	if createError != nil {
		return fmt.Errorf(writeErrorTemplateConstant, trimmedPath, createError)
	}
	temporaryPath := temporaryFile.Name()

	_, writeError := temporaryFile.Write(encodedRecords)
	closeError := temporaryFile.Close()
	if writeError == nil {
		writeError = closeError
	}
	if writeError != nil {
		_ = store.fileSystem.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, trimmedPath, writeError)
	}

	if chmodError := store.fileSystem.Chmod(temporaryPath, outputFilePermissionsConstant); chmodError != nil {
		_ = store.fileSystem.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, trimmedPath, chmodError)
	}

	if renameError := store.fileSystem.Rename(temporaryPath, trimmedPath); renameError != nil {
		_ = store.fileSystem.Remove(temporaryPath)
		return fmt.Errorf(writeErrorTemplateConstant, trimmedPath, renameError)
	}
	return nil
}

// Read loads records from a result set file. Records missing a name or url are
// completed from full_name, html_url, ssh_url, or clone_url when possible and
// otherwise returned as-is for the caller to report.
func (store *Store) Read(path string) ([]Record, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, ErrPathNotProvided
	}
	if store == nil || store.fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}

	content, readError := afero.ReadFile(store.fileSystem, trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(readErrorTemplateConstant, trimmedPath, readError)
	}

	var storedRecords []storedRecord
	decoder := json.NewDecoder(bytes.NewReader(content))
	if decodeError := decoder.Decode(&storedRecords); decodeError != nil {
		return nil, fmt.Errorf(decodeErrorTemplateConstant, trimmedPath, decodeError)
	}

	records := make([]Record, 0, len(storedRecords))
	for _, stored := range storedRecords {
		records = append(records, stored.normalize())
	}
	return records, nil
}

func (stored storedRecord) normalize() Record {
	record := Record{
		Name:     strings.TrimSpace(stored.Name),
		URL:      strings.TrimSpace(stored.URL),
		HTTPSURL: strings.TrimSpace(stored.HTTPSURL),
		FullName: strings.TrimSpace(stored.FullName),
	}
	if len(record.URL) == 0 {
		record.URL = strings.TrimSpace(stored.SSHURL)
	}
	if len(record.HTTPSURL) == 0 {
		record.HTTPSURL = strings.TrimSpace(stored.CloneURL)
	}

	remote, remoteKnown := stored.resolveRemote(record)
	if remoteKnown {
		if len(record.FullName) == 0 {
			record.FullName = remote.FullName()
		}
		if len(record.URL) == 0 {
			remote.Protocol = gitrepo.RemoteProtocolSSH
			if sshURL, formatError := gitrepo.FormatRemoteURL(remote); formatError == nil {
				record.URL = sshURL
			}
		}
	}

	if len(record.Name) == 0 && len(record.FullName) > 0 {
		segments := strings.Split(record.FullName, fullNameSeparatorConstant)
		record.Name = segments[len(segments)-1]
	}
	return record
}

func (stored storedRecord) resolveRemote(record Record) (gitrepo.RemoteURL, bool) {
	candidates := []string{record.URL, record.HTTPSURL, stored.HTMLURL}
	for _, candidate := range candidates {
		if len(strings.TrimSpace(candidate)) == 0 {
			continue
		}
		if remote, parseError := gitrepo.ParseRemoteURL(candidate); parseError == nil {
			return remote, true
		}
	}
	if len(record.FullName) > 0 {
		if remote, parseError := gitrepo.ParseFullName(gitrepo.DefaultHostConstant, record.FullName); parseError == nil {
			return remote, true
		}
	}
	return gitrepo.RemoteURL{}, false
}
