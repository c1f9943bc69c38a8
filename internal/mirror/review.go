package mirror

import (
	"context"

	"github.com/temirov/debsync/internal/branchsync"
	"github.com/temirov/debsync/internal/githubapi"
	"github.com/temirov/debsync/internal/githubcli"
)

const existingReviewLookupLimitConstant = 1

// PullRequestCLI is the subset of githubcli.Client used to open review requests.
type PullRequestCLI interface {
	ListPullRequests(executionContext context.Context, options githubcli.PullRequestListOptions) ([]githubcli.PullRequest, error)
	CreatePullRequest(executionContext context.Context, options githubcli.PullRequestCreateOptions) (githubcli.PullRequest, error)
}

// PullRequestAPI is the subset of githubapi.Provider used to open review requests.
type PullRequestAPI interface {
	FindOpenPullRequest(executionContext context.Context, baseBranch string, headBranch string) (githubapi.PullRequest, bool, error)
	CreatePullRequest(executionContext context.Context, request githubapi.PullRequestRequest) (githubapi.PullRequest, error)
}

// CLIReviewRequester opens review requests through gh. An open request for the same head and base is reused.
type CLIReviewRequester struct {
	client           PullRequestCLI
	repository       string
	workingDirectory string
}

// NewCLIReviewRequester constructs a requester. repository may be blank when workingDirectory is a clone gh understands.
func NewCLIReviewRequester(client PullRequestCLI, repository string, workingDirectory string) *CLIReviewRequester {
	return &CLIReviewRequester{client: client, repository: repository, workingDirectory: workingDirectory}
}

// RequestReview implements branchsync.ReviewRequester.
func (requester *CLIReviewRequester) RequestReview(executionContext context.Context, request branchsync.ReviewRequest) (branchsync.ReviewReference, error) {
	existing, listError := requester.client.ListPullRequests(executionContext, githubcli.PullRequestListOptions{
		Repository:       requester.repository,
		WorkingDirectory: requester.workingDirectory,
		State:            githubcli.PullRequestStateOpen,
		BaseBranch:       request.BaseBranch,
		HeadBranch:       request.HeadBranch,
		ResultLimit:      existingReviewLookupLimitConstant,
	})
	if listError == nil && len(existing) > 0 {
		return branchsync.ReviewReference{Number: existing[0].Number, URL: existing[0].URL}, nil
	}

	created, createError := requester.client.CreatePullRequest(executionContext, githubcli.PullRequestCreateOptions{
		Repository:       requester.repository,
		WorkingDirectory: requester.workingDirectory,
		BaseBranch:       request.BaseBranch,
		HeadBranch:       request.HeadBranch,
		Title:            request.Title,
		Body:             request.Body,
	})
	if createError != nil {
		return branchsync.ReviewReference{}, createError
	}
	return branchsync.ReviewReference{Number: created.Number, URL: created.URL}, nil
}

// APIReviewRequester opens review requests through the GitHub REST API.
type APIReviewRequester struct {
	provider PullRequestAPI
}

// NewAPIReviewRequester constructs a requester.
func NewAPIReviewRequester(provider PullRequestAPI) *APIReviewRequester {
	return &APIReviewRequester{provider: provider}
}

// RequestReview implements branchsync.ReviewRequester.
func (requester *APIReviewRequester) RequestReview(executionContext context.Context, request branchsync.ReviewRequest) (branchsync.ReviewReference, error) {
	existing, found, findError := requester.provider.FindOpenPullRequest(executionContext, request.BaseBranch, request.HeadBranch)
	if findError == nil && found {
		return branchsync.ReviewReference{Number: existing.Number, URL: existing.URL}, nil
	}

	created, createError := requester.provider.CreatePullRequest(executionContext, githubapi.PullRequestRequest{
		BaseBranch: request.BaseBranch,
		HeadBranch: request.HeadBranch,
		Title:      request.Title,
		Body:       request.Body,
	})
	if createError != nil {
		return branchsync.ReviewReference{}, createError
	}
	return branchsync.ReviewReference{Number: created.Number, URL: created.URL}, nil
}
