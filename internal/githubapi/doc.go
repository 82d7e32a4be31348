// Package githubapi lists a user's repositories through the GitHub REST API using
// go-github, and classifies failures as network, rate-limit, authentication, or
// generic API errors so callers can give the operator targeted guidance.
package githubapi
