package licensing

import (
	"strings"

	"github.com/temirov/relicense/internal/gitrepo"
	"github.com/temirov/relicense/internal/resultset"
)

// resolveCloneURL selects the clone endpoint for a record.
// SSH uses the record URL verbatim; HTTPS prefers https_url and embeds the token when present.
func resolveCloneURL(record resultset.Record, options Options) (string, error) {
	if !options.DisableSSH {
		return strings.TrimSpace(record.URL), nil
	}

	candidates := []string{record.HTTPSURL, record.URL}
	var lastParseError error
	for _, candidate := range candidates {
		if len(strings.TrimSpace(candidate)) == 0 {
			continue
		}
		remote, parseError := gitrepo.ParseRemoteURL(candidate)
		if parseError != nil {
			lastParseError = parseError
			continue
		}
		return gitrepo.FormatAuthenticatedHTTPSURL(remote, options.Token)
	}
	if len(strings.TrimSpace(record.FullName)) > 0 {
		remote, parseError := gitrepo.ParseFullName(gitrepo.DefaultHostConstant, record.FullName)
		if parseError == nil {
			return gitrepo.FormatAuthenticatedHTTPSURL(remote, options.Token)
		}
		lastParseError = parseError
	}
	return "", lastParseError
}
