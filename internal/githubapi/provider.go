package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const (
	trailingSlashConstant              = "/"
	headReferenceTemplateConstant      = "%s:%s"
	openStateConstant                  = "open"
	listPageSizeConstant               = 10
	tokenRequiredMessageConstant       = "github token required"
	repositoryRequiredMessageConstant  = "github owner and repository required"
	invalidBaseURLTemplateConstant     = "invalid github api url %q: %w"
	operationFailedTemplateConstant    = "github %s failed for %s/%s: %v"
	createPullRequestOperationConstant = "create pull request"
	listPullRequestsOperationConstant  = "list pull requests"
	repositoryFullNameTemplateConstant = "%s/%s"
)

var (
	// ErrTokenRequired indicates no API token was configured.
	ErrTokenRequired = errors.New(tokenRequiredMessageConstant)
	// ErrRepositoryRequired indicates owner or repository coordinates are missing.
	ErrRepositoryRequired = errors.New(repositoryRequiredMessageConstant)
)

// Configuration describes how to reach the GitHub API.
type Configuration struct {
	Token      string
	Owner      string
	Repository string
	// BaseURL overrides the API endpoint; used for GitHub Enterprise and tests.
	BaseURL string
}

// PullRequest is the subset of pull request fields debsync reports.
type PullRequest struct {
	Number int
	URL    string
}

// PullRequestRequest describes a pull request to open.
type PullRequestRequest struct {
	BaseBranch string
	HeadBranch string
	Title      string
	Body       string
}

// OperationError wraps a failed API call.
type OperationError struct {
	Operation  string
	Owner      string
	Repository string
	Cause      error
}

// Error describes the failed call.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationFailedTemplateConstant, operationError.Operation, operationError.Owner, operationError.Repository, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Provider talks to a single repository.
type Provider struct {
	client     *github.Client
	owner      string
	repository string
}

// NewProvider builds a provider authenticated with a static token.
func NewProvider(configuration Configuration) (*Provider, error) {
	trimmedToken := strings.TrimSpace(configuration.Token)
	if len(trimmedToken) == 0 {
		return nil, ErrTokenRequired
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
	return NewProviderWithHTTPClient(configuration, oauth2.NewClient(context.Background(), tokenSource))
}

// NewProviderWithHTTPClient builds a provider around an existing HTTP client.
func NewProviderWithHTTPClient(configuration Configuration, httpClient *http.Client) (*Provider, error) {
	trimmedOwner := strings.TrimSpace(configuration.Owner)
	trimmedRepository := strings.TrimSpace(configuration.Repository)
	if len(trimmedOwner) == 0 || len(trimmedRepository) == 0 {
		return nil, ErrRepositoryRequired
	}

	client := github.NewClient(httpClient)
	if trimmedBaseURL := strings.TrimSpace(configuration.BaseURL); len(trimmedBaseURL) > 0 {
		if !strings.HasSuffix(trimmedBaseURL, trailingSlashConstant) {
			trimmedBaseURL += trailingSlashConstant
		}
		parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
		if parseError != nil {
			return nil, fmt.Errorf(invalidBaseURLTemplateConstant, configuration.BaseURL, parseError)
		}
		client.BaseURL = parsedBaseURL
	}

	return &Provider{client: client, owner: trimmedOwner, repository: trimmedRepository}, nil
}

// Repository returns "owner/repository".
func (provider *Provider) Repository() string {
	return fmt.Sprintf(repositoryFullNameTemplateConstant, provider.owner, provider.repository)
}

// CreatePullRequest opens a pull request from HeadBranch into BaseBranch.
func (provider *Provider) CreatePullRequest(executionContext context.Context, request PullRequestRequest) (PullRequest, error) {
	newPullRequest := &github.NewPullRequest{
		Title: github.String(request.Title),
		Body:  github.String(request.Body),
		Base:  github.String(request.BaseBranch),
		Head:  github.String(request.HeadBranch),
	}

	createdPullRequest, _, createError := provider.client.PullRequests.Create(executionContext, provider.owner, provider.repository, newPullRequest)
	if createError != nil {
		return PullRequest{}, provider.operationError(createPullRequestOperationConstant, createError)
	}
	return toPullRequest(createdPullRequest), nil
}

// FindOpenPullRequest returns the open pull request from headBranch into baseBranch, if any.
func (provider *Provider) FindOpenPullRequest(executionContext context.Context, baseBranch string, headBranch string) (PullRequest, bool, error) {
	listOptions := &github.PullRequestListOptions{
		State:       openStateConstant,
		Base:        baseBranch,
		Head:        fmt.Sprintf(headReferenceTemplateConstant, provider.owner, headBranch),
		ListOptions: github.ListOptions{PerPage: listPageSizeConstant},
	}

	pullRequests, _, listError := provider.client.PullRequests.List(executionContext, provider.owner, provider.repository, listOptions)
	if listError != nil {
		return PullRequest{}, false, provider.operationError(listPullRequestsOperationConstant, listError)
	}
	if len(pullRequests) == 0 {
		return PullRequest{}, false, nil
	}
	return toPullRequest(pullRequests[0]), true, nil
}

func (provider *Provider) operationError(operation string, cause error) error {
	return OperationError{Operation: operation, Owner: provider.owner, Repository: provider.repository, Cause: cause}
}

func toPullRequest(pullRequest *github.PullRequest) PullRequest {
	if pullRequest == nil {
		return PullRequest{}
	}
	return PullRequest{Number: pullRequest.GetNumber(), URL: pullRequest.GetHTMLURL()}
}
