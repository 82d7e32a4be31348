package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/relicense/internal/githubauth"
)

func TestResolveTokenPreference(testInstance *testing.T) {
	testCases := []struct {
		name           string
		explicitToken  string
		environment    map[string]string
		expectedToken  string
		expectedSource githubauth.TokenSource
	}{
		{
			name:           "flag_wins",
			explicitToken:  " flag-token ",
			environment:    map[string]string{githubauth.EnvGitHubToken: "env-token"},
			expectedToken:  "flag-token",
			expectedSource: githubauth.TokenSourceFlag,
		},
		{
			name:           "github_token_before_gh_token",
			environment:    map[string]string{githubauth.EnvGitHubToken: "github-token", githubauth.EnvGitHubCLIToken: "gh-token"},
			expectedToken:  "github-token",
			expectedSource: githubauth.TokenSource(githubauth.EnvGitHubToken),
		},
		{
			name:           "blank_github_token_falls_through",
			environment:    map[string]string{githubauth.EnvGitHubToken: "  ", githubauth.EnvGitHubCLIToken: "gh-token"},
			expectedToken:  "gh-token",
			expectedSource: githubauth.TokenSource(githubauth.EnvGitHubCLIToken),
		},
		{
			name:           "none",
			environment:    map[string]string{},
			expectedSource: githubauth.TokenSourceNone,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			lookup := func(key string) (string, bool) {
				value, exists := testCase.environment[key]
				return value, exists
			}
			token, source := githubauth.ResolveToken(testCase.explicitToken, lookup)
			require.Equal(testInstance, testCase.expectedToken, token)
			require.Equal(testInstance, testCase.expectedSource, source)
		})
	}
}
