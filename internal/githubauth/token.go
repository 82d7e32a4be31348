package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, in preference order.
const (
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubCLIToken = "GH_TOKEN"
)

// TokenSource names where a resolved token came from. It never carries the token itself.
type TokenSource string

// Token sources.
const (
	TokenSourceNone TokenSource = TokenSource("none")
	TokenSourceFlag TokenSource = TokenSource("flag")
)

var tokenPreference = []string{
	EnvGitHubToken,
	EnvGitHubCLIToken,
}

// EnvironmentLookup reads a single environment variable.
type EnvironmentLookup func(key string) (string, bool)

// ResolveToken returns the explicit token when non-empty, otherwise the first non-empty
// token found in the environment. A nil lookup reads the process environment.
func ResolveToken(explicitToken string, lookup EnvironmentLookup) (string, TokenSource) {
	if trimmedToken := strings.TrimSpace(explicitToken); len(trimmedToken) > 0 {
		return trimmedToken, TokenSourceFlag
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, TokenSource(key)
		}
	}
	return "", TokenSourceNone
}
