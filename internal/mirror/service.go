package mirror

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/debsync/internal/branchsync"
	"github.com/temirov/debsync/internal/filesystem"
	"github.com/temirov/debsync/internal/gitrepo"
	"github.com/temirov/debsync/internal/packages"
	"github.com/temirov/debsync/internal/routing"
	"github.com/temirov/debsync/internal/ui"
)

const (
	worktreeRootPatternConstant           = "debsync-worktrees-"
	missingDependencyMessageConstant      = "mirror service dependency missing"
	notRepositoryMessageConstant          = "workspace is not a git work tree"
	notRepositoryRootMessageConstant      = "workspace is not the top level of its git work tree"
	workspaceRootErrorTemplateConstant    = "%w: %s is inside %s"
	dependencyErrorTemplateConstant       = "%w: %s"
	workspaceErrorTemplateConstant        = "%w: %s"
	workspaceResolveErrorTemplateConstant = "unable to resolve workspace %s: %w"
	workspaceInspectErrorTemplateConstant = "unable to inspect workspace %s: %w"
	packageLocateErrorTemplateConstant    = "unable to locate packages: %w"
	commitListErrorTemplateConstant       = "unable to list commits %s: %w"
	worktreeRootErrorTemplateConstant     = "unable to create worktree root: %w"
	syncerCreationErrorTemplateConstant   = "unable to construct branch syncer: %w"
	commitFailedErrorTemplateConstant     = "commit %s: %w"
	repositoryDependencyNameConstant      = "repository"
	fileSystemDependencyNameConstant      = "file system"
	packagesFoundTemplateConstant         = "Found %d packages"
	packageLineTemplateConstant           = "  %s -> %s"
	manifestSkippedTemplateConstant       = "  skipped %s: %v"
	commitsFoundTemplateConstant          = "Processing %d commits (%s)"
	commitHeaderTemplateConstant          = "Commit %s: %s"
	commitNoParentTemplateConstant        = "  %s has no parent; nothing to route"
	commitNoBranchesTemplateConstant      = "  no package affected"
	routedFileTemplateConstant            = "  %s -> %s"
	unroutedFileTemplateConstant          = "  %s -> (no package)"
	outcomeSyncedTemplateConstant         = "  %s: synced to %s"
	outcomeSyncedReviewTemplateConstant   = "  %s: synced to %s, review %s"
	outcomeUnchangedTemplateConstant      = "  %s: already up to date"
	outcomeFailedTemplateConstant         = "  %s: failed (%s): %v"
	summaryTemplateConstant               = "Done: %d synced, %d unchanged, %d failed, %d of %d commits skipped"
	worktreeRootCleanupMessageConstant    = "Worktree root cleanup failed"
	commitSkippedMessageConstant          = "Commit skipped"
	commitSkippedTemplateConstant         = "Skipping %v"
	noParentMessageConstant               = "Commit has no parent; skipping"
	branchSyncFailedMessageConstant       = "Branch sync failed"
	logFieldCommitConstant                = "commit"
	logFieldTargetBranchConstant          = "target_branch"
	logFieldReasonConstant                = "reason"
	logFieldPackageConstant               = "package"
	logFieldWorktreeRootConstant          = "worktree_root"
	messageSubjectSeparatorConstant       = "\n"
)

var (
	// ErrMissingDependency indicates the service was constructed without a required collaborator.
	ErrMissingDependency = errors.New(missingDependencyMessageConstant)
	// ErrNotRepository indicates the workspace path is not inside a git work tree.
	ErrNotRepository = errors.New(notRepositoryMessageConstant)
	// ErrNotRepositoryRoot indicates the workspace path is a subdirectory of a work tree.
	// Changed paths are reported relative to the top level, so package roots would never match.
	ErrNotRepositoryRoot = errors.New(notRepositoryRootMessageConstant)
)

// Repository is the git surface a run needs: history inspection plus the branch sync operations.
type Repository interface {
	branchsync.RepositoryOperations
	IsWorkTree(executionContext context.Context, repositoryPath string) (bool, error)
	WorkTreeRoot(executionContext context.Context, repositoryPath string) (string, error)
	ResolveRevision(executionContext context.Context, repositoryPath string, revision string) (string, error)
	ListCommits(executionContext context.Context, repositoryPath string, exclusiveBase string, head string) ([]string, error)
	CommitMetadata(executionContext context.Context, repositoryPath string, commitHash string) (gitrepo.CommitMetadata, error)
	FirstParent(executionContext context.Context, repositoryPath string, commitHash string) (string, error)
	ChangedFiles(executionContext context.Context, repositoryPath string, parentHash string, commitHash string) ([]string, error)
}

// PackageLocator discovers packages beneath a workspace.
type PackageLocator interface {
	Locate(workspaceRoot string) (packages.LocateResult, error)
}

// ServiceDependencies enumerates the collaborators of Service. Locator, Reporter and Logger are optional.
// Reviewer is required only for pull request mode.
type ServiceDependencies struct {
	Repository Repository
	Reviewer   branchsync.ReviewRequester
	FileSystem filesystem.FileSystem
	Locator    PackageLocator
	Reporter   ui.Reporter
	Logger     *zap.Logger
}

// Options configures one run.
type Options struct {
	WorkspacePath    string
	Range            CommitRange
	Mode             branchsync.PublishMode
	RemoteName       string
	BaseBranch       string
	Namer            routing.BranchNamer
	ManifestFileName string
	Concurrency      int
	Committer        gitrepo.Identity
}

// BranchOutcome records the result of syncing one commit onto one branch.
type BranchOutcome struct {
	CommitHash string
	Result     branchsync.Result
}

// Summary aggregates a run.
type Summary struct {
	Packages         []packages.PackageRecord
	CommitsProcessed int
	CommitsSkipped   int
	Outcomes         []BranchOutcome
}

// Count returns the number of outcomes with the provided status.
func (summary Summary) Count(status branchsync.Status) int {
	count := 0
	for _, outcome := range summary.Outcomes {
		if outcome.Result.Status == status {
			count++
		}
	}
	return count
}

// Service mirrors pushed commits into release branches.
type Service struct {
	dependencies ServiceDependencies
}

// NewService validates dependencies and constructs a Service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Repository == nil {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, repositoryDependencyNameConstant)
	}
	if dependencies.FileSystem == nil {
		return nil, fmt.Errorf(dependencyErrorTemplateConstant, ErrMissingDependency, fileSystemDependencyNameConstant)
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = ui.DiscardReporter{}
	}
	return &Service{dependencies: dependencies}, nil
}

// Run processes every commit in options.Range. Errors are returned only for an unusable environment;
// per-branch failures are reported in the Summary.
func (service *Service) Run(executionContext context.Context, options Options) (Summary, error) {
	repository := service.dependencies.Repository
	reporter := service.dependencies.Reporter
	logger := service.dependencies.Logger

	absolutePath, absoluteError := filepath.Abs(options.WorkspacePath)
	if absoluteError != nil {
		return Summary{}, fmt.Errorf(workspaceResolveErrorTemplateConstant, options.WorkspacePath, absoluteError)
	}
	workspacePath := canonicalPath(absolutePath)
	isWorkTree, inspectError := repository.IsWorkTree(executionContext, workspacePath)
	if inspectError != nil {
		return Summary{}, fmt.Errorf(workspaceInspectErrorTemplateConstant, workspacePath, inspectError)
	}
	if !isWorkTree {
		return Summary{}, fmt.Errorf(workspaceErrorTemplateConstant, ErrNotRepository, workspacePath)
	}
	topLevelPath, topLevelError := repository.WorkTreeRoot(executionContext, workspacePath)
	if topLevelError != nil {
		return Summary{}, fmt.Errorf(workspaceInspectErrorTemplateConstant, workspacePath, topLevelError)
	}
	if canonicalPath(topLevelPath) != workspacePath {
		return Summary{}, fmt.Errorf(workspaceRootErrorTemplateConstant, ErrNotRepositoryRoot, workspacePath, topLevelPath)
	}

	located, locateError := service.resolveLocator(options).Locate(workspacePath)
	if locateError != nil {
		return Summary{}, fmt.Errorf(packageLocateErrorTemplateConstant, locateError)
	}
	summary := Summary{Packages: located.Packages}
	reporter.Printf(packagesFoundTemplateConstant, len(located.Packages))
	for _, record := range located.Packages {
		reporter.Printf(packageLineTemplateConstant, record.RootPath, record.Identifier)
	}
	for _, parseFailure := range located.ParseFailures {
		reporter.Printf(manifestSkippedTemplateConstant, parseFailure.ManifestPath, parseFailure.Cause)
	}

	commitHashes, listError := service.listCommits(executionContext, workspacePath, options.Range)
	if listError != nil {
		return summary, fmt.Errorf(commitListErrorTemplateConstant, options.Range.String(), listError)
	}
	reporter.Printf(commitsFoundTemplateConstant, len(commitHashes), options.Range.String())

	worktreeRoot, worktreeRootError := service.dependencies.FileSystem.MkdirTemp("", worktreeRootPatternConstant)
	if worktreeRootError != nil {
		return summary, fmt.Errorf(worktreeRootErrorTemplateConstant, worktreeRootError)
	}
	defer func() {
		if cleanupError := filesystem.RemoveIfExists(service.dependencies.FileSystem, worktreeRoot); cleanupError != nil {
			logger.Warn(worktreeRootCleanupMessageConstant, zap.String(logFieldWorktreeRootConstant, worktreeRoot), zap.Error(cleanupError))
		}
	}()

	syncer, syncerError := branchsync.NewSyncer(
		branchsync.Settings{
			RepositoryPath: workspacePath,
			WorktreeRoot:   worktreeRoot,
			RemoteName:     options.RemoteName,
			Committer:      options.Committer,
		},
		branchsync.Dependencies{
			Repository: repository,
			Reviewer:   service.dependencies.Reviewer,
			FileSystem: service.dependencies.FileSystem,
			Logger:     logger,
		},
	)
	if syncerError != nil {
		return summary, fmt.Errorf(syncerCreationErrorTemplateConstant, syncerError)
	}
	router := routing.NewRouter(options.Namer)

	for _, commitHash := range commitHashes {
		if contextError := executionContext.Err(); contextError != nil {
			return summary, contextError
		}
		outcomes, processed, commitError := service.processCommit(executionContext, workspacePath, commitHash, located.Packages, router, syncer, options)
		if commitError != nil {
			wrappedError := fmt.Errorf(commitFailedErrorTemplateConstant, branchsync.ShortHash(commitHash), commitError)
			logger.Error(commitSkippedMessageConstant, zap.String(logFieldCommitConstant, commitHash), zap.Error(wrappedError))
			reporter.Printf(commitSkippedTemplateConstant, wrappedError)
			summary.CommitsSkipped++
			continue
		}
		if processed {
			summary.CommitsProcessed++
		} else {
			summary.CommitsSkipped++
		}
		summary.Outcomes = append(summary.Outcomes, outcomes...)
	}

	reporter.Printf(summaryTemplateConstant,
		summary.Count(branchsync.StatusSynced),
		summary.Count(branchsync.StatusNoChange),
		summary.Count(branchsync.StatusFailed),
		summary.CommitsSkipped,
		len(commitHashes),
	)
	return summary, nil
}

func (service *Service) resolveLocator(options Options) PackageLocator {
	if service.dependencies.Locator != nil {
		return service.dependencies.Locator
	}
	return packages.NewLocator(packages.LocatorOptions{
		ManifestFileName: options.ManifestFileName,
		Logger:           service.dependencies.Logger,
	})
}

func (service *Service) listCommits(executionContext context.Context, workspacePath string, commitRange CommitRange) ([]string, error) {
	repository := service.dependencies.Repository
	switch commitRange.Kind {
	case CommitRangeSinceCommit:
		return repository.ListCommits(executionContext, workspacePath, commitRange.Base, commitRange.Head)
	case CommitRangeFull:
		return repository.ListCommits(executionContext, workspacePath, "", commitRange.Head)
	default:
		headHash, resolveError := repository.ResolveRevision(executionContext, workspacePath, commitRange.Head)
		if resolveError != nil {
			return nil, resolveError
		}
		return []string{headHash}, nil
	}
}

// processCommit routes and syncs one commit. The boolean is false when the commit was skipped.
func (service *Service) processCommit(
	executionContext context.Context,
	workspacePath string,
	commitHash string,
	packageRecords []packages.PackageRecord,
	router *routing.Router,
	syncer *branchsync.Syncer,
	options Options,
) ([]BranchOutcome, bool, error) {
	repository := service.dependencies.Repository
	reporter := service.dependencies.Reporter
	logger := service.dependencies.Logger.With(zap.String(logFieldCommitConstant, commitHash))

	metadata, metadataError := repository.CommitMetadata(executionContext, workspacePath, commitHash)
	if metadataError != nil {
		return nil, false, metadataError
	}
	reporter.Printf(commitHeaderTemplateConstant, branchsync.ShortHash(metadata.Hash), subjectLine(metadata.Message))

	parentHash, parentError := repository.FirstParent(executionContext, workspacePath, metadata.Hash)
	if errors.Is(parentError, gitrepo.ErrNoParentCommit) {
		logger.Warn(noParentMessageConstant)
		reporter.Printf(commitNoParentTemplateConstant, branchsync.ShortHash(metadata.Hash))
		return nil, false, nil
	}
	if parentError != nil {
		return nil, false, parentError
	}

	changedFiles, diffError := repository.ChangedFiles(executionContext, workspacePath, parentHash, metadata.Hash)
	if diffError != nil {
		return nil, false, diffError
	}
	routed := router.Route(changedFiles, packageRecords)
	for _, branch := range routed.Branches {
		for _, ownedFile := range branch.OwnedFiles {
			reporter.Printf(routedFileTemplateConstant, ownedFile, branch.TargetBranch)
		}
	}
	for _, unroutedFile := range routed.UnroutedFiles {
		reporter.Printf(unroutedFileTemplateConstant, unroutedFile)
	}
	if routed.IsEmpty() {
		reporter.Printf(commitNoBranchesTemplateConstant)
		return nil, true, nil
	}

	outcomes := make([]BranchOutcome, len(routed.Branches))
	group := &errgroup.Group{}
	group.SetLimit(max(options.Concurrency, 1))
	for branchIndex, branch := range routed.Branches {
		group.Go(func() error {
			result, syncError := syncer.Sync(executionContext, branchsync.Request{
				Commit:       metadata,
				BaseBranch:   options.BaseBranch,
				TargetBranch: branch.TargetBranch,
				OwnedFiles:   branch.OwnedFiles,
				Mode:         options.Mode,
			})
			if syncError != nil {
				result = branchsync.Result{Status: branchsync.StatusFailed, Reason: branchsync.FailureReasonVcs, TargetBranch: branch.TargetBranch, Cause: syncError}
			}
			outcomes[branchIndex] = BranchOutcome{CommitHash: metadata.Hash, Result: result}
			service.reportOutcome(logger.With(zap.String(logFieldPackageConstant, branch.Identifier)), result)
			return nil
		})
	}
	_ = group.Wait()

	return outcomes, true, nil
}

func (service *Service) reportOutcome(logger *zap.Logger, result branchsync.Result) {
	reporter := service.dependencies.Reporter
	switch result.Status {
	case branchsync.StatusSynced:
		if len(result.Review.URL) > 0 {
			reporter.Printf(outcomeSyncedReviewTemplateConstant, result.TargetBranch, result.PublishedBranch, result.Review.URL)
			return
		}
		reporter.Printf(outcomeSyncedTemplateConstant, result.TargetBranch, result.PublishedBranch)
	case branchsync.StatusNoChange:
		reporter.Printf(outcomeUnchangedTemplateConstant, result.TargetBranch)
	default:
		logger.Error(branchSyncFailedMessageConstant,
			zap.String(logFieldTargetBranchConstant, result.TargetBranch),
			zap.String(logFieldReasonConstant, string(result.Reason)),
			zap.Error(result.Cause),
		)
		reporter.Printf(outcomeFailedTemplateConstant, result.TargetBranch, result.Reason, result.Cause)
	}
}

// canonicalPath resolves symlinks; git reports the top level with links resolved and WalkDir does not
// descend into a linked root.
func canonicalPath(path string) string {
	resolvedPath, resolveError := filepath.EvalSymlinks(path)
	if resolveError != nil {
		return filepath.Clean(path)
	}
	return resolvedPath
}

func subjectLine(message string) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(message), messageSubjectSeparatorConstant)
	return subject
}
