// Package gitrepo parses and formats git remote URLs.
//
// The licenser uses it to switch a repository between its SSH and HTTPS
// clone endpoints and to embed an access token into HTTPS remotes.
package gitrepo
