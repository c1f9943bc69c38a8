package branchsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/debsync/internal/gitrepo"
)

const (
	vcsOperationErrorTemplateConstant    = "%s failed for %s: %v"
	reviewRequestErrorTemplateConstant   = "review request %s -> %s failed: %v"
	invalidModeErrorTemplateConstant     = "unsupported publish mode %q"
	missingDependencyMessageConstant     = "branch syncer dependency missing"
	dependencyErrorTemplateConstant      = "%w: %s"
	missingOwnedFilesMessageConstant     = "owned files required"
	missingTargetBranchMessageConstant   = "target branch required"
	missingCommitHashMessageConstant     = "source commit hash required"
	repositoryDependencyNameConstant     = "repository"
	fileSystemDependencyNameConstant     = "file system"
	loggerDependencyNameConstant         = "logger"
	repositoryPathDependencyNameConstant = "repository path"
	worktreeRootDependencyNameConstant   = "worktree root"
	remoteNameDependencyNameConstant     = "remote name"
	reviewerDependencyNameConstant       = "review requester"
)

// PublishMode selects how a synthesized commit reaches the target branch.
type PublishMode string

const (
	// PublishModePullRequest pushes to a side branch and opens a review request against the target.
	PublishModePullRequest PublishMode = "pr"
	// PublishModeDirect pushes straight to the target branch.
	PublishModeDirect PublishMode = "direct"
)

// ParsePublishMode converts user input into a PublishMode. Blank input selects PublishModePullRequest.
func ParsePublishMode(raw string) (PublishMode, error) {
	switch PublishMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PublishModePullRequest:
		return PublishModePullRequest, nil
	case PublishModeDirect:
		return PublishModeDirect, nil
	default:
		return "", fmt.Errorf(invalidModeErrorTemplateConstant, raw)
	}
}

// Status is the outcome of one sync.
type Status string

const (
	// StatusSynced indicates the commit was published.
	StatusSynced Status = "synced"
	// StatusNoChange indicates the target branch already held the commit's content.
	StatusNoChange Status = "unchanged"
	// StatusFailed indicates the sync aborted. Result.Cause carries the reason.
	StatusFailed Status = "failed"
)

// FailureReason classifies a failed sync.
type FailureReason string

const (
	// FailureReasonNone accompanies successful and unchanged results.
	FailureReasonNone FailureReason = ""
	// FailureReasonVcs indicates a fetch, worktree, commit or push step failed.
	FailureReasonVcs FailureReason = "vcs"
	// FailureReasonReviewRequest indicates the push succeeded but the review request could not be opened.
	FailureReasonReviewRequest FailureReason = "review_request"
	// FailureReasonTimeout indicates the run context expired during the sync.
	FailureReasonTimeout FailureReason = "timeout"
)

var (
	// ErrMissingDependency indicates the syncer was constructed without a required collaborator.
	ErrMissingDependency = errors.New(missingDependencyMessageConstant)
	// ErrOwnedFilesRequired indicates a request without files to overlay.
	ErrOwnedFilesRequired = errors.New(missingOwnedFilesMessageConstant)
	// ErrTargetBranchRequired indicates a request without a target branch.
	ErrTargetBranchRequired = errors.New(missingTargetBranchMessageConstant)
	// ErrCommitHashRequired indicates a request without a source commit.
	ErrCommitHashRequired = errors.New(missingCommitHashMessageConstant)
)

// VcsOperationError reports a version-control step that aborted a sync.
type VcsOperationError struct {
	Stage        string
	TargetBranch string
	Cause        error
}

func (operationError VcsOperationError) Error() string {
	return fmt.Sprintf(vcsOperationErrorTemplateConstant, operationError.Stage, operationError.TargetBranch, operationError.Cause)
}

func (operationError VcsOperationError) Unwrap() error {
	return operationError.Cause
}

// ReviewRequestError reports a review request that could not be created. The side branch was already pushed.
type ReviewRequestError struct {
	BaseBranch string
	HeadBranch string
	Cause      error
}

func (reviewError ReviewRequestError) Error() string {
	return fmt.Sprintf(reviewRequestErrorTemplateConstant, reviewError.HeadBranch, reviewError.BaseBranch, reviewError.Cause)
}

func (reviewError ReviewRequestError) Unwrap() error {
	return reviewError.Cause
}

// RepositoryOperations is the subset of gitrepo.RepositoryManager the syncer drives.
type RepositoryOperations interface {
	FetchBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (string, error)
	AddDetachedWorktree(executionContext context.Context, repositoryPath string, worktreePath string, revision string) error
	RemoveWorktree(executionContext context.Context, repositoryPath string, worktreePath string) error
	PruneWorktrees(executionContext context.Context, repositoryPath string) error
	ReadTreeEntry(executionContext context.Context, repositoryPath string, commitHash string, filePath string) (gitrepo.TreeEntry, bool, error)
	ReadBlob(executionContext context.Context, repositoryPath string, objectID string) ([]byte, error)
	StageAll(executionContext context.Context, worktreePath string) error
	IsClean(executionContext context.Context, worktreePath string) (bool, error)
	Commit(executionContext context.Context, worktreePath string, request gitrepo.CommitRequest) error
	PushHead(executionContext context.Context, worktreePath string, request gitrepo.PushRequest) error
}

// ReviewRequest describes a review request from HeadBranch into BaseBranch.
type ReviewRequest struct {
	BaseBranch string
	HeadBranch string
	Title      string
	Body       string
}

// ReviewReference identifies a created or already open review request.
type ReviewReference struct {
	Number int
	URL    string
}

// ReviewRequester opens review requests.
type ReviewRequester interface {
	RequestReview(executionContext context.Context, request ReviewRequest) (ReviewReference, error)
}

// Request describes one sync of one commit onto one target branch.
type Request struct {
	Commit       gitrepo.CommitMetadata
	BaseBranch   string
	TargetBranch string
	OwnedFiles   []string
	Mode         PublishMode
}

// Result reports the outcome of a sync.
type Result struct {
	Status          Status
	Reason          FailureReason
	TargetBranch    string
	PublishedBranch string
	Review          ReviewReference
	Cause           error
}
