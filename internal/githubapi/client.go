package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURLConstant is the public GitHub REST endpoint.
	DefaultBaseURLConstant                    = "https://api.github.com/"
	userRepositoriesPathTemplateConstant      = "users/%s/repos?%s"
	repositoryTypeQueryKeyConstant            = "type"
	repositoryTypePublicValueConstant         = "public"
	sortQueryKeyConstant                      = "sort"
	sortFullNameValueConstant                 = "full_name"
	perPageQueryKeyConstant                   = "per_page"
	pageQueryKeyConstant                      = "page"
	repositoriesPerPageConstant               = 100
	firstPageNumberConstant                   = 1
	urlPathSeparatorConstant                  = "/"
	rateLimitRemainingHeaderConstant          = "X-RateLimit-Remaining"
	rateLimitResetHeaderConstant              = "X-RateLimit-Reset"
	retryAfterHeaderConstant                  = "Retry-After"
	exhaustedRateLimitValueConstant           = "0"
	jsonNullLiteralConstant                   = "null"
	usernameFieldNameConstant                 = "username"
	baseURLFieldNameConstant                  = "base_url"
	requiredValueMessageConstant              = "value required"
	requestBuildErrorTemplateConstant         = "unable to build %s request: %w"
	listUserRepositoriesOperationNameConstant = OperationName("ListUserRepositories")
)

// Repository captures the listing fields needed to classify and clone a repository.
type Repository struct {
	Name       string
	FullName   string
	SSHURL     string
	CloneURL   string
	HTMLURL    string
	Private    bool
	HasLicense bool
}

// repositoryPayload keeps the license field raw because the API may report it as
// null, an empty string, or an object.
type repositoryPayload struct {
	Name     string          `json:"name"`
	FullName string          `json:"full_name"`
	SSHURL   string          `json:"ssh_url"`
	CloneURL string          `json:"clone_url"`
	HTMLURL  string          `json:"html_url"`
	Private  bool            `json:"private"`
	License  json.RawMessage `json:"license"`
}

type licensePayload struct {
	Key    string `json:"key"`
	SPDXID string `json:"spdx_id"`
	Name   string `json:"name"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	Clock      func() time.Time
}

// Client lists repositories through the GitHub REST API.
type Client struct {
	restClient *github.Client
	clock      func() time.Time
}

// NewClient constructs a Client. A non-empty token is sent as an OAuth2 bearer token.
func NewClient(executionContext context.Context, options ClientOptions) (*Client, error) {
	httpClient := options.HTTPClient
	trimmedToken := strings.TrimSpace(options.Token)
	if len(trimmedToken) > 0 {
		tokenContext := executionContext
		if httpClient != nil {
			tokenContext = context.WithValue(tokenContext, oauth2.HTTPClient, httpClient)
		}
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
		httpClient = oauth2.NewClient(tokenContext, tokenSource)
	}

	restClient := github.NewClient(httpClient)

	baseURL := strings.TrimSpace(options.BaseURL)
	if len(baseURL) == 0 {
		baseURL = DefaultBaseURLConstant
	}
	if !strings.HasSuffix(baseURL, urlPathSeparatorConstant) {
		baseURL += urlPathSeparatorConstant
	}
	parsedBaseURL, parseError := url.Parse(baseURL)
	if parseError != nil || len(parsedBaseURL.Host) == 0 {
		return nil, InvalidInputError{FieldName: baseURLFieldNameConstant, Message: baseURL}
	}
	restClient.BaseURL = parsedBaseURL

	clock := options.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Client{restClient: restClient, clock: clock}, nil
}

// ListUserRepositories pages through the public repositories of a user until an empty
// page is returned. Entries are returned in API order.
func (client *Client) ListUserRepositories(executionContext context.Context, username string) ([]Repository, error) {
	trimmedUsername := strings.TrimSpace(username)
	if len(trimmedUsername) == 0 {
		return nil, InvalidInputError{FieldName: usernameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	repositories := make([]Repository, 0)
	for pageNumber := firstPageNumberConstant; ; pageNumber++ {
		pageRepositories, pageError := client.listUserRepositoriesPage(executionContext, trimmedUsername, pageNumber)
		if pageError != nil {
			return nil, pageError
		}
		if len(pageRepositories) == 0 {
			break
		}
		repositories = append(repositories, pageRepositories...)
	}
	return repositories, nil
}

func (client *Client) listUserRepositoriesPage(executionContext context.Context, username string, pageNumber int) ([]Repository, error) {
	query := url.Values{}
	query.Set(repositoryTypeQueryKeyConstant, repositoryTypePublicValueConstant)
	query.Set(sortQueryKeyConstant, sortFullNameValueConstant)
	query.Set(perPageQueryKeyConstant, strconv.Itoa(repositoriesPerPageConstant))
	query.Set(pageQueryKeyConstant, strconv.Itoa(pageNumber))

	requestPath := fmt.Sprintf(userRepositoriesPathTemplateConstant, url.PathEscape(username), query.Encode())
	request, requestError := client.restClient.NewRequest(http.MethodGet, requestPath, nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestBuildErrorTemplateConstant, listUserRepositoriesOperationNameConstant, requestError)
	}

	var payloads []repositoryPayload
	response, doError := client.restClient.Do(executionContext, request, &payloads)
	if doError != nil {
		return nil, client.classifyError(listUserRepositoriesOperationNameConstant, response, doError)
	}

	repositories := make([]Repository, 0, len(payloads))
	for _, payload := range payloads {
		repositories = append(repositories, Repository{
			Name:       payload.Name,
			FullName:   payload.FullName,
			SSHURL:     payload.SSHURL,
			CloneURL:   payload.CloneURL,
			HTMLURL:    payload.HTMLURL,
			Private:    payload.Private,
			HasLicense: licenseRegistered(payload.License),
		})
	}
	return repositories, nil
}

// licenseRegistered reports false for an absent, null, empty-string, or all-empty object license.
func licenseRegistered(rawLicense json.RawMessage) bool {
	trimmedLicense := bytes.TrimSpace(rawLicense)
	if len(trimmedLicense) == 0 || string(trimmedLicense) == jsonNullLiteralConstant {
		return false
	}

	var licenseText string
	if json.Unmarshal(trimmedLicense, &licenseText) == nil {
		return len(strings.TrimSpace(licenseText)) > 0
	}

	var license licensePayload
	if json.Unmarshal(trimmedLicense, &license) == nil {
		return len(strings.TrimSpace(license.Key)) > 0 ||
			len(strings.TrimSpace(license.SPDXID)) > 0 ||
			len(strings.TrimSpace(license.Name)) > 0
	}

	return true
}

func (client *Client) classifyError(operation OperationName, response *github.Response, failure error) error {
	var rateLimitFailure *github.RateLimitError
	if errors.As(failure, &rateLimitFailure) {
		resetAt := rateLimitFailure.Rate.Reset.Time
		return RateLimitError{
			Operation:  operation,
			StatusCode: responseStatusCode(response),
			ResetAt:    resetAt,
			RetryAfter: client.waitUntil(resetAt),
			Cause:      failure,
		}
	}

	var abuseFailure *github.AbuseRateLimitError
	if errors.As(failure, &abuseFailure) {
		return RateLimitError{
			Operation:  operation,
			StatusCode: responseStatusCode(response),
			RetryAfter: abuseFailure.GetRetryAfter(),
			Cause:      failure,
		}
	}

	var transportFailure *url.Error
	if errors.As(failure, &transportFailure) || errors.Is(failure, context.Canceled) || errors.Is(failure, context.DeadlineExceeded) {
		return NetworkError{Operation: operation, Cause: failure}
	}

	statusCode := responseStatusCode(response)
	message := failure.Error()
	var errorResponse *github.ErrorResponse
	if errors.As(failure, &errorResponse) && len(strings.TrimSpace(errorResponse.Message)) > 0 {
		message = strings.TrimSpace(errorResponse.Message)
	}

	switch {
	case statusCode == http.StatusUnauthorized:
		return AuthError{Operation: operation, StatusCode: statusCode, Message: message, Cause: failure}
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusForbidden && response.Header.Get(rateLimitRemainingHeaderConstant) == exhaustedRateLimitValueConstant:
		resetAt, retryAfter := client.parseRateLimitHeaders(response.Header)
		return RateLimitError{Operation: operation, StatusCode: statusCode, ResetAt: resetAt, RetryAfter: retryAfter, Cause: failure}
	case statusCode == http.StatusForbidden:
		return AuthError{Operation: operation, StatusCode: statusCode, Message: message, Cause: failure}
	default:
		return APIError{Operation: operation, StatusCode: statusCode, Message: message, Cause: failure}
	}
}

func (client *Client) parseRateLimitHeaders(header http.Header) (time.Time, time.Duration) {
	if resetValue, parseError := strconv.ParseInt(strings.TrimSpace(header.Get(rateLimitResetHeaderConstant)), 10, 64); parseError == nil {
		resetAt := time.Unix(resetValue, 0)
		return resetAt, client.waitUntil(resetAt)
	}
	if retryAfterSeconds, parseError := strconv.ParseInt(strings.TrimSpace(header.Get(retryAfterHeaderConstant)), 10, 64); parseError == nil && retryAfterSeconds > 0 {
		retryAfter := time.Duration(retryAfterSeconds) * time.Second
		return client.clock().Add(retryAfter), retryAfter
	}
	return time.Time{}, 0
}

func (client *Client) waitUntil(resetAt time.Time) time.Duration {
	if resetAt.IsZero() {
		return 0
	}
	remaining := resetAt.Sub(client.clock())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func responseStatusCode(response *github.Response) int {
	if response == nil || response.Response == nil {
		return 0
	}
	return response.StatusCode
}
