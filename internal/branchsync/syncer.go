package branchsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/debsync/internal/filesystem"
	"github.com/temirov/debsync/internal/gitrepo"
)

const (
	stageFetchConstant                  = "fetch target branch"
	stageAcquireConstant                = "create worktree"
	stageOverlayConstant                = "overlay files"
	stageStageConstant                  = "stage changes"
	stageStatusConstant                 = "inspect worktree"
	stageCommitConstant                 = "commit"
	stagePushConstant                   = "push"
	regularFileModeConstant             = "100644"
	executableFileModeConstant          = "100755"
	symlinkModeConstant                 = "120000"
	blobObjectTypeConstant              = "blob"
	regularFilePermissionsConstant      = fs.FileMode(0o644)
	executablePermissionsConstant       = fs.FileMode(0o755)
	logFieldTargetBranchConstant        = "target_branch"
	logFieldCommitConstant              = "commit"
	logFieldPathConstant                = "path"
	logFieldWorktreeConstant            = "worktree"
	logFieldModeConstant                = "mode"
	logFieldObjectTypeConstant          = "object_type"
	logFieldPublishedBranchConstant     = "published_branch"
	logFieldReviewURLConstant           = "review_url"
	skippedEntryMessageConstant         = "Skipping non-file tree entry"
	staleWorktreeMessageConstant        = "Removing stale worktree"
	worktreeCleanupFailedConstant       = "Worktree cleanup failed"
	noChangeMessageConstant             = "Target branch already up to date"
	syncedMessageConstant               = "Commit synced"
	pathEscapesWorktreeTemplateConstant = "path %q escapes worktree"
	parentDirectoryPrefixConstant       = ".."
)

// Settings holds the per-run values shared by every sync.
type Settings struct {
	RepositoryPath string
	WorktreeRoot   string
	RemoteName     string
	Committer      gitrepo.Identity
}

// Dependencies enumerates the collaborators required by Syncer. Reviewer may be nil when only direct mode is used.
type Dependencies struct {
	Repository RepositoryOperations
	Reviewer   ReviewRequester
	FileSystem filesystem.FileSystem
	Logger     *zap.Logger
}

// Syncer replays commits onto release branches. Sync is safe for concurrent use; operations that touch the
// parent repository's FETCH_HEAD or worktree records run one at a time.
type Syncer struct {
	settings     Settings
	dependencies Dependencies
	parentLock   sync.Mutex
}

// NewSyncer validates dependencies and settings and constructs a Syncer.
func NewSyncer(settings Settings, dependencies Dependencies) (*Syncer, error) {
	if dependencies.Repository == nil {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, repositoryDependencyNameConstant)
	}
	if dependencies.FileSystem == nil {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, fileSystemDependencyNameConstant)
	}
	if dependencies.Logger == nil {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, loggerDependencyNameConstant)
	}
	if len(strings.TrimSpace(settings.RepositoryPath)) == 0 {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, repositoryPathDependencyNameConstant)
	}
	if len(strings.TrimSpace(settings.WorktreeRoot)) == 0 {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, worktreeRootDependencyNameConstant)
	}
	if len(strings.TrimSpace(settings.RemoteName)) == 0 {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, remoteNameDependencyNameConstant)
	}
	return &Syncer{settings: settings, dependencies: dependencies}, nil
}

// Sync overlays the owned files of request.Commit onto request.TargetBranch and publishes the result.
// Invalid requests are returned as errors; every other failure is reported through Result.
func (syncer *Syncer) Sync(executionContext context.Context, request Request) (Result, error) {
	if validationError := syncer.validate(request); validationError != nil {
		return Result{}, validationError
	}

	logger := syncer.dependencies.Logger.With(
		zap.String(logFieldTargetBranchConstant, request.TargetBranch),
		zap.String(logFieldCommitConstant, request.Commit.Hash),
	)
	worktreePath := filepath.Join(syncer.settings.WorktreeRoot, WorktreeDirectoryName(request.TargetBranch))
	result := Result{TargetBranch: request.TargetBranch}

	defer syncer.release(context.WithoutCancel(executionContext), logger, worktreePath)

	if acquireError := syncer.acquire(executionContext, logger, worktreePath, request.TargetBranch); acquireError != nil {
		return failed(result, acquireError), nil
	}

	if overlayError := syncer.overlay(executionContext, logger, worktreePath, request); overlayError != nil {
		return failed(result, VcsOperationError{Stage: stageOverlayConstant, TargetBranch: request.TargetBranch, Cause: overlayError}), nil
	}

	repository := syncer.dependencies.Repository
	if stageError := repository.StageAll(executionContext, worktreePath); stageError != nil {
		return failed(result, VcsOperationError{Stage: stageStageConstant, TargetBranch: request.TargetBranch, Cause: stageError}), nil
	}
	clean, statusError := repository.IsClean(executionContext, worktreePath)
	if statusError != nil {
		return failed(result, VcsOperationError{Stage: stageStatusConstant, TargetBranch: request.TargetBranch, Cause: statusError}), nil
	}
	if clean {
		logger.Info(noChangeMessageConstant)
		result.Status = StatusNoChange
		return result, nil
	}

	commitRequest := gitrepo.CommitRequest{
		Message: CommitMessage(request.Commit.Message, request.Commit.Hash),
		Author: gitrepo.Identity{
			Name:  request.Commit.AuthorName,
			Email: request.Commit.AuthorEmail,
			Date:  request.Commit.AuthorDate,
		},
		Committer: syncer.settings.Committer,
	}
	if commitError := repository.Commit(executionContext, worktreePath, commitRequest); commitError != nil {
		return failed(result, VcsOperationError{Stage: stageCommitConstant, TargetBranch: request.TargetBranch, Cause: commitError}), nil
	}

	publishedResult := syncer.publish(executionContext, worktreePath, request, result)
	if publishedResult.Status == StatusSynced {
		logger.Info(syncedMessageConstant,
			zap.String(logFieldPublishedBranchConstant, publishedResult.PublishedBranch),
			zap.String(logFieldReviewURLConstant, publishedResult.Review.URL),
		)
	}
	return publishedResult, nil
}

func (syncer *Syncer) validate(request Request) error {
	if len(strings.TrimSpace(request.Commit.Hash)) == 0 {
		return ErrCommitHashRequired
	}
	if len(strings.TrimSpace(request.TargetBranch)) == 0 {
		return ErrTargetBranchRequired
	}
	if len(request.OwnedFiles) == 0 {
		return ErrOwnedFilesRequired
	}
	switch request.Mode {
	case PublishModeDirect:
		return nil
	case PublishModePullRequest:
		if syncer.dependencies.Reviewer == nil {
			return fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, reviewerDependencyNameConstant)
		}
		return nil
	default:
		return fmt.Errorf(invalidModeErrorTemplateConstant, request.Mode)
	}
}

func (syncer *Syncer) acquire(executionContext context.Context, logger *zap.Logger, worktreePath string, targetBranch string) error {
	repository := syncer.dependencies.Repository
	syncer.parentLock.Lock()
	trackingRef, fetchError := repository.FetchBranch(executionContext, syncer.settings.RepositoryPath, syncer.settings.RemoteName, targetBranch)
	syncer.parentLock.Unlock()
	if fetchError != nil {
		return VcsOperationError{Stage: stageFetchConstant, TargetBranch: targetBranch, Cause: fetchError}
	}

	if _, statError := syncer.dependencies.FileSystem.Lstat(worktreePath); statError == nil {
		logger.Warn(staleWorktreeMessageConstant, zap.String(logFieldWorktreeConstant, worktreePath))
		syncer.release(executionContext, logger, worktreePath)
	}

	syncer.parentLock.Lock()
	addError := repository.AddDetachedWorktree(executionContext, syncer.settings.RepositoryPath, worktreePath, trackingRef)
	syncer.parentLock.Unlock()
	if addError != nil {
		return VcsOperationError{Stage: stageAcquireConstant, TargetBranch: targetBranch, Cause: addError}
	}
	return nil
}

func (syncer *Syncer) overlay(executionContext context.Context, logger *zap.Logger, worktreePath string, request Request) error {
	repository := syncer.dependencies.Repository
	fileSystem := syncer.dependencies.FileSystem

	for _, ownedFile := range request.OwnedFiles {
		destination, destinationError := resolveInside(worktreePath, ownedFile)
		if destinationError != nil {
			return destinationError
		}

		entry, present, readError := repository.ReadTreeEntry(executionContext, syncer.settings.RepositoryPath, request.Commit.Hash, ownedFile)
		if readError != nil {
			return readError
		}
		if !present {
			if removeError := filesystem.RemoveIfExists(fileSystem, destination); removeError != nil {
				return removeError
			}
			continue
		}
		if entry.ObjectType != blobObjectTypeConstant {
			logger.Warn(skippedEntryMessageConstant, zap.String(logFieldPathConstant, ownedFile), zap.String(logFieldObjectTypeConstant, entry.ObjectType))
			continue
		}

		content, blobError := repository.ReadBlob(executionContext, syncer.settings.RepositoryPath, entry.ObjectID)
		if blobError != nil {
			return blobError
		}

		var writeError error
		switch entry.Mode {
		case regularFileModeConstant:
			writeError = filesystem.ReplaceWithFile(fileSystem, destination, content, regularFilePermissionsConstant)
		case executableFileModeConstant:
			writeError = filesystem.ReplaceWithFile(fileSystem, destination, content, executablePermissionsConstant)
		case symlinkModeConstant:
			writeError = filesystem.ReplaceWithSymlink(fileSystem, destination, string(content))
		default:
			logger.Warn(skippedEntryMessageConstant, zap.String(logFieldPathConstant, ownedFile), zap.String(logFieldModeConstant, entry.Mode))
			continue
		}
		if writeError != nil {
			return writeError
		}
	}
	return nil
}

func (syncer *Syncer) publish(executionContext context.Context, worktreePath string, request Request, result Result) Result {
	repository := syncer.dependencies.Repository

	if request.Mode == PublishModeDirect {
		pushError := repository.PushHead(executionContext, worktreePath, gitrepo.PushRequest{
			RemoteName: syncer.settings.RemoteName,
			BranchName: request.TargetBranch,
		})
		if pushError != nil {
			return failed(result, VcsOperationError{Stage: stagePushConstant, TargetBranch: request.TargetBranch, Cause: pushError})
		}
		result.Status = StatusSynced
		result.PublishedBranch = request.TargetBranch
		return result
	}

	sideBranch := SideBranchName(request.TargetBranch, request.Commit.Hash)
	pushError := repository.PushHead(executionContext, worktreePath, gitrepo.PushRequest{
		RemoteName: syncer.settings.RemoteName,
		BranchName: sideBranch,
		Force:      true,
	})
	if pushError != nil {
		return failed(result, VcsOperationError{Stage: stagePushConstant, TargetBranch: request.TargetBranch, Cause: pushError})
	}
	result.PublishedBranch = sideBranch

	review, reviewError := syncer.dependencies.Reviewer.RequestReview(executionContext, ReviewRequest{
		BaseBranch: request.TargetBranch,
		HeadBranch: sideBranch,
		Title:      ReviewTitle(request.Commit.Hash),
		Body:       ReviewBody(request.Commit.Message, request.Commit.Hash),
	})
	if reviewError != nil {
		return failed(result, ReviewRequestError{BaseBranch: request.TargetBranch, HeadBranch: sideBranch, Cause: reviewError})
	}
	result.Status = StatusSynced
	result.Review = review
	return result
}

func (syncer *Syncer) release(executionContext context.Context, logger *zap.Logger, worktreePath string) {
	repository := syncer.dependencies.Repository
	syncer.parentLock.Lock()
	defer syncer.parentLock.Unlock()
	if removeError := repository.RemoveWorktree(executionContext, syncer.settings.RepositoryPath, worktreePath); removeError != nil {
		logger.Debug(worktreeCleanupFailedConstant, zap.String(logFieldWorktreeConstant, worktreePath), zap.Error(removeError))
	}
	if removeError := filesystem.RemoveIfExists(syncer.dependencies.FileSystem, worktreePath); removeError != nil {
		logger.Warn(worktreeCleanupFailedConstant, zap.String(logFieldWorktreeConstant, worktreePath), zap.Error(removeError))
	}
	if pruneError := repository.PruneWorktrees(executionContext, syncer.settings.RepositoryPath); pruneError != nil {
		logger.Warn(worktreeCleanupFailedConstant, zap.String(logFieldWorktreeConstant, worktreePath), zap.Error(pruneError))
	}
}

func failed(result Result, cause error) Result {
	result.Status = StatusFailed
	result.Cause = cause
	result.Reason = classify(cause)
	return result
}

func classify(cause error) FailureReason {
	var reviewError ReviewRequestError
	if errors.As(cause, &reviewError) {
		return FailureReasonReviewRequest
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return FailureReasonTimeout
	}
	return FailureReasonVcs
}

func resolveInside(worktreePath string, relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleaned) || cleaned == parentDirectoryPrefixConstant || strings.HasPrefix(cleaned, parentDirectoryPrefixConstant+string(filepath.Separator)) {
		return "", fmt.Errorf(pathEscapesWorktreeTemplateConstant, relativePath)
	}
	return filepath.Join(worktreePath, cleaned), nil
}
