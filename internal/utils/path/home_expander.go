// Package pathutils expands user-supplied paths from flags and configuration.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant = "~"
	forwardSlashLiteral = "/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves environment variables referenced as $NAME or ${NAME}.
type EnvironmentLookup func(key string) (string, bool)

// HomeExpander resolves a leading "~" to the user's home directory and expands
// environment references, so "~/work" and "$HOME/work" name the same directory.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewHomeExpander constructs a HomeExpander using the operating system lookups.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom home provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	return NewHomeExpanderWithLookups(provider, nil)
}

// NewHomeExpanderWithLookups constructs a HomeExpander with custom home and environment lookups.
func NewHomeExpanderWithLookups(provider HomeDirectoryProvider, lookup EnvironmentLookup) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &HomeExpander{homeDirectoryProvider: provider, environmentLookup: lookup}
}

// Expand resolves environment references and a leading "~" or "~/" prefix.
// "~user" forms are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := candidatePath
	if strings.Contains(expandedPath, "$") {
		expandedPath = os.Expand(expandedPath, func(key string) string {
			value, _ := expander.environmentLookup(key)
			return value
		})
	}

	if !strings.HasPrefix(expandedPath, tildeSymbolConstant) {
		return expandedPath
	}
	remainder := strings.TrimPrefix(expandedPath, tildeSymbolConstant)
	if len(remainder) > 0 && !strings.HasPrefix(remainder, forwardSlashLiteral) && !strings.HasPrefix(remainder, string(os.PathSeparator)) {
		return expandedPath
	}

	resolvedHomeDirectory := expander.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return expandedPath
	}
	if len(remainder) == 0 {
		return resolvedHomeDirectory
	}
	return filepath.Join(resolvedHomeDirectory, remainder[1:])
}

func (expander *HomeExpander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
