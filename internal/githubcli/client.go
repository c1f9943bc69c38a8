package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/debsync/internal/execshell"
)

const (
	pullRequestSubcommandConstant           = "pr"
	listSubcommandConstant                  = "list"
	createSubcommandConstant                = "create"
	jsonFlagConstant                        = "--json"
	repoFlagConstant                        = "--repo"
	stateFlagConstant                       = "--state"
	baseFlagConstant                        = "--base"
	headFlagConstant                        = "--head"
	titleFlagConstant                       = "--title"
	bodyFlagConstant                        = "--body"
	limitFlagConstant                       = "--limit"
	baseBranchFieldNameConstant             = "base_branch"
	headBranchFieldNameConstant             = "head_branch"
	titleFieldNameConstant                  = "title"
	stateFieldNameConstant                  = "state"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	missingPullRequestURLMessageConstant    = "gh printed no pull request url"
	pullRequestURLPathMarkerConstant        = "/pull/"
	pullRequestLimitDefaultValueConstant    = 20
	pullRequestJSONFieldsConstant           = "number,title,headRefName,url"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	listPullRequestsOperationNameConstant   = OperationName("ListPullRequests")
	createPullRequestOperationNameConstant  = OperationName("CreatePullRequest")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// PullRequestState describes acceptable GitHub pull request states.
type PullRequestState string

// Pull request state enumerations.
const (
	PullRequestStateOpen   PullRequestState = PullRequestState("open")
	PullRequestStateClosed PullRequestState = PullRequestState("closed")
	PullRequestStateMerged PullRequestState = PullRequestState("merged")
)

// PullRequest represents minimal PR details returned by GitHub CLI.
type PullRequest struct {
	Number      int
	Title       string
	HeadRefName string
	URL         string
}

// PullRequestListOptions configures ListPullRequests queries. Repository may be empty when
// WorkingDirectory is a clone gh can infer the repository from.
type PullRequestListOptions struct {
	Repository       string
	WorkingDirectory string
	State            PullRequestState
	BaseBranch       string
	HeadBranch       string
	ResultLimit      int
}

// PullRequestCreateOptions describes a pull request to open.
type PullRequestCreateOptions struct {
	Repository       string
	WorkingDirectory string
	BaseBranch       string
	HeadBranch       string
	Title            string
	Body             string
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrPullRequestURLMissing indicates gh succeeded without printing the created pull request.
	ErrPullRequestURLMissing = errors.New(missingPullRequestURLMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ListPullRequests enumerates pull requests using gh pr list.
func (client *Client) ListPullRequests(executionContext context.Context, options PullRequestListOptions) ([]PullRequest, error) {
	if len(options.State) == 0 {
		return nil, InvalidInputError{FieldName: stateFieldNameConstant, Message: requiredValueMessageConstant}
	}

	resultLimit := options.ResultLimit
	if resultLimit <= 0 {
		resultLimit = pullRequestLimitDefaultValueConstant
	}

	arguments := []string{pullRequestSubcommandConstant, listSubcommandConstant}
	arguments = appendRepositoryFlag(arguments, options.Repository)
	arguments = append(arguments, stateFlagConstant, string(options.State))
	if trimmedBase := strings.TrimSpace(options.BaseBranch); len(trimmedBase) > 0 {
		arguments = append(arguments, baseFlagConstant, trimmedBase)
	}
	if trimmedHead := strings.TrimSpace(options.HeadBranch); len(trimmedHead) > 0 {
		arguments = append(arguments, headFlagConstant, trimmedHead)
	}
	arguments = append(arguments, jsonFlagConstant, pullRequestJSONFieldsConstant, limitFlagConstant, strconv.Itoa(resultLimit))

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: options.WorkingDirectory,
	})
	if executionError != nil {
		return nil, OperationError{Operation: listPullRequestsOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Number      int    `json:"number"`
		Title       string `json:"title"`
		HeadRefName string `json:"headRefName"`
		URL         string `json:"url"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: listPullRequestsOperationNameConstant, Cause: decodingError}
	}

	pullRequests := make([]PullRequest, 0, len(response))
	for _, pullRequestEntry := range response {
		pullRequests = append(pullRequests, PullRequest{
			Number:      pullRequestEntry.Number,
			Title:       pullRequestEntry.Title,
			HeadRefName: pullRequestEntry.HeadRefName,
			URL:         pullRequestEntry.URL,
		})
	}

	return pullRequests, nil
}

// CreatePullRequest opens a pull request using gh pr create and returns the printed URL.
func (client *Client) CreatePullRequest(executionContext context.Context, options PullRequestCreateOptions) (PullRequest, error) {
	trimmedBase := strings.TrimSpace(options.BaseBranch)
	if len(trimmedBase) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedHead := strings.TrimSpace(options.HeadBranch)
	if len(trimmedHead) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedTitle := strings.TrimSpace(options.Title)
	if len(trimmedTitle) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}

	arguments := []string{pullRequestSubcommandConstant, createSubcommandConstant}
	arguments = appendRepositoryFlag(arguments, options.Repository)
	arguments = append(arguments,
		baseFlagConstant, trimmedBase,
		headFlagConstant, trimmedHead,
		titleFlagConstant, trimmedTitle,
		bodyFlagConstant, options.Body,
	)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: options.WorkingDirectory,
	})
	if executionError != nil {
		return PullRequest{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: executionError}
	}

	pullRequestURL := lastNonEmptyLine(executionResult.StandardOutput)
	if len(pullRequestURL) == 0 {
		return PullRequest{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: ErrPullRequestURLMissing}
	}

	return PullRequest{
		Number:      parsePullRequestNumber(pullRequestURL),
		Title:       trimmedTitle,
		HeadRefName: trimmedHead,
		URL:         pullRequestURL,
	}, nil
}

func appendRepositoryFlag(arguments []string, repository string) []string {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return arguments
	}
	return append(arguments, repoFlagConstant, trimmedRepository)
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for index := len(lines) - 1; index >= 0; index-- {
		if trimmedLine := strings.TrimSpace(lines[index]); len(trimmedLine) > 0 {
			return trimmedLine
		}
	}
	return ""
}

// parsePullRequestNumber extracts N from ".../pull/N"; zero when absent.
func parsePullRequestNumber(pullRequestURL string) int {
	markerIndex := strings.LastIndex(pullRequestURL, pullRequestURLPathMarkerConstant)
	if markerIndex == -1 {
		return 0
	}
	number, parseError := strconv.Atoi(strings.Trim(pullRequestURL[markerIndex+len(pullRequestURLPathMarkerConstant):], "/"))
	if parseError != nil {
		return 0
	}
	return number
}
