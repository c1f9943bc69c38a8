package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/debsync/internal/execshell"
)

const (
	gitRevParseSubcommandConstant        = "rev-parse"
	gitIsInsideWorkTreeFlagConstant      = "--is-inside-work-tree"
	gitShowTopLevelFlagConstant          = "--show-toplevel"
	gitVerifyFlagConstant                = "--verify"
	gitQuietFlagConstant                 = "--quiet"
	gitCommitPeelSuffixConstant          = "^{commit}"
	gitRevListSubcommandConstant         = "rev-list"
	gitReverseFlagConstant               = "--reverse"
	gitParentsFlagConstant               = "--parents"
	gitMaxCountFlagConstant              = "--max-count=1"
	gitRangeSeparatorConstant            = ".."
	gitLogSubcommandConstant             = "log"
	gitSingleCommitFlagConstant          = "-1"
	gitCommitMetadataFormatConstant      = "--format=%H%x00%h%x00%an%x00%ae%x00%aI%x00%B"
	gitDiffSubcommandConstant            = "diff"
	gitNameOnlyFlagConstant              = "--name-only"
	gitNoRenamesFlagConstant             = "--no-renames"
	gitNullTerminatedFlagConstant        = "-z"
	gitLsTreeSubcommandConstant          = "ls-tree"
	gitPathSeparatorArgumentConstant     = "--"
	gitCatFileSubcommandConstant         = "cat-file"
	gitBlobObjectTypeConstant            = "blob"
	gitWorktreeSubcommandConstant        = "worktree"
	gitWorktreeAddActionConstant         = "add"
	gitWorktreeRemoveActionConstant      = "remove"
	gitWorktreePruneActionConstant       = "prune"
	gitDetachFlagConstant                = "--detach"
	gitForceFlagConstant                 = "--force"
	gitFetchSubcommandConstant           = "fetch"
	gitNoTagsFlagConstant                = "--no-tags"
	gitFetchRefspecTemplateConstant      = "+refs/heads/%s:refs/remotes/%s/%s"
	gitRemoteTrackingRefTemplateConstant = "%s/%s"
	gitAddSubcommandConstant             = "add"
	gitAllFlagConstant                   = "-A"
	gitStatusSubcommandConstant          = "status"
	gitPorcelainFlagConstant             = "--porcelain"
	gitCommitSubcommandConstant          = "commit"
	gitMessageFromStdinFlagConstant      = "-F"
	gitStandardInputArgumentConstant     = "-"
	gitNoVerifyFlagConstant              = "--no-verify"
	gitPushSubcommandConstant            = "push"
	gitPushRefspecTemplateConstant       = "HEAD:refs/heads/%s"
	gitRemoteSubcommandConstant          = "remote"
	gitGetURLActionConstant              = "get-url"
	gitTrueOutputConstant                = "true"
	gitTerminalPromptEnvironmentConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant    = "0"
	gitAuthorNameEnvironmentConstant     = "GIT_AUTHOR_NAME"
	gitAuthorEmailEnvironmentConstant    = "GIT_AUTHOR_EMAIL"
	gitAuthorDateEnvironmentConstant     = "GIT_AUTHOR_DATE"
	gitCommitterNameEnvironmentConstant  = "GIT_COMMITTER_NAME"
	gitCommitterEmailEnvironmentConstant = "GIT_COMMITTER_EMAIL"
	nullSeparatorConstant                = "\x00"
	newlineSeparatorConstant             = "\n"
	tabSeparatorConstant                 = "\t"
	commitMetadataFieldCountConstant     = 6
	treeEntryHeaderFieldCountConstant    = 3
	requiredValueMessageConstant         = "value required"
	executorNotConfiguredMessageConstant = "git executor not configured"
	noParentCommitMessageConstant        = "commit has no parent"
	repositoryPathFieldNameConstant      = "repository path"
	worktreePathFieldNameConstant        = "worktree path"
	revisionFieldNameConstant            = "revision"
	remoteFieldNameConstant              = "remote"
	branchFieldNameConstant              = "branch"
	objectFieldNameConstant              = "object"
	pathFieldNameConstant                = "path"
	messageFieldNameConstant             = "commit message"
	requiredFieldTemplateConstant        = "%s: %s"
	unexpectedOutputTemplateConstant     = "unexpected %s output for %s: %q"
	operationErrorTemplateConstant       = "%s %s: %v"
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrNoParentCommit indicates the commit is a root commit and has nothing to diff against.
var ErrNoParentCommit = errors.New(noParentCommitMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RequiredValueError reports an empty mandatory argument.
type RequiredValueError struct {
	FieldName string
}

// Error describes the missing value.
func (requiredError RequiredValueError) Error() string {
	return fmt.Sprintf(requiredFieldTemplateConstant, requiredError.FieldName, requiredValueMessageConstant)
}

// OperationError wraps a failed git operation with the subject it acted on.
type OperationError struct {
	Operation string
	Subject   string
	Cause     error
}

// Error describes the failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Subject, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// CommitMetadata describes a single commit.
type CommitMetadata struct {
	Hash        string
	ShortHash   string
	AuthorName  string
	AuthorEmail string
	AuthorDate  string
	Message     string
}

// TreeEntry is one line of git ls-tree output.
type TreeEntry struct {
	Mode       string
	ObjectType string
	ObjectID   string
	Path       string
}

// Identity names a commit author or committer. An empty Date leaves git's default in place.
type Identity struct {
	Name  string
	Email string
	Date  string
}

// CommitRequest describes a commit authored on behalf of another identity.
type CommitRequest struct {
	Message   string
	Author    Identity
	Committer Identity
}

// PushRequest describes a push of HEAD to a branch on a remote.
type PushRequest struct {
	RemoteName string
	BranchName string
	Force      bool
}

// RepositoryManager exposes the git operations used by debsync.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsWorkTree reports whether repositoryPath is inside a git work tree.
func (manager *RepositoryManager) IsWorkTree(executionContext context.Context, repositoryPath string) (bool, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return false, RequiredValueError{FieldName: repositoryPathFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant})
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return false, nil
		}
		return false, executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput) == gitTrueOutputConstant, nil
}

// WorkTreeRoot returns the top-level directory of the work tree containing repositoryPath.
func (manager *RepositoryManager) WorkTreeRoot(executionContext context.Context, repositoryPath string) (string, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return "", RequiredValueError{FieldName: repositoryPathFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant})
	if executionError != nil {
		return "", OperationError{Operation: gitRevParseSubcommandConstant, Subject: repositoryPath, Cause: executionError}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ResolveRevision returns the full commit hash a revision names.
func (manager *RepositoryManager) ResolveRevision(executionContext context.Context, repositoryPath string, revision string) (string, error) {
	trimmedRevision := strings.TrimSpace(revision)
	if len(trimmedRevision) == 0 {
		return "", RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, trimmedRevision + gitCommitPeelSuffixConstant})
	if executionError != nil {
		return "", OperationError{Operation: gitRevParseSubcommandConstant, Subject: trimmedRevision, Cause: executionError}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ListCommits returns commits reachable from head and not from exclusiveBase, oldest first.
// An empty exclusiveBase lists the full history reachable from head.
func (manager *RepositoryManager) ListCommits(executionContext context.Context, repositoryPath string, exclusiveBase string, head string) ([]string, error) {
	trimmedHead := strings.TrimSpace(head)
	if len(trimmedHead) == 0 {
		return nil, RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	revisionRange := trimmedHead
	if trimmedBase := strings.TrimSpace(exclusiveBase); len(trimmedBase) > 0 {
		revisionRange = trimmedBase + gitRangeSeparatorConstant + trimmedHead
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitRevListSubcommandConstant, gitReverseFlagConstant, revisionRange})
	if executionError != nil {
		return nil, OperationError{Operation: gitRevListSubcommandConstant, Subject: revisionRange, Cause: executionError}
	}
	return splitNonEmpty(executionResult.StandardOutput, newlineSeparatorConstant), nil
}

// CommitMetadata reads authorship and the full message of a commit.
func (manager *RepositoryManager) CommitMetadata(executionContext context.Context, repositoryPath string, commitHash string) (CommitMetadata, error) {
	trimmedHash := strings.TrimSpace(commitHash)
	if len(trimmedHash) == 0 {
		return CommitMetadata{}, RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitLogSubcommandConstant, gitSingleCommitFlagConstant, gitCommitMetadataFormatConstant, trimmedHash})
	if executionError != nil {
		return CommitMetadata{}, OperationError{Operation: gitLogSubcommandConstant, Subject: trimmedHash, Cause: executionError}
	}
	fields := strings.SplitN(executionResult.StandardOutput, nullSeparatorConstant, commitMetadataFieldCountConstant)
	if len(fields) != commitMetadataFieldCountConstant {
		return CommitMetadata{}, fmt.Errorf(unexpectedOutputTemplateConstant, gitLogSubcommandConstant, trimmedHash, executionResult.StandardOutput)
	}
	return CommitMetadata{
		Hash:        strings.TrimSpace(fields[0]),
		ShortHash:   strings.TrimSpace(fields[1]),
		AuthorName:  fields[2],
		AuthorEmail: fields[3],
		AuthorDate:  strings.TrimSpace(fields[4]),
		Message:     strings.TrimRight(fields[5], newlineSeparatorConstant),
	}, nil
}

// FirstParent returns the first parent of a commit or ErrNoParentCommit for root commits.
func (manager *RepositoryManager) FirstParent(executionContext context.Context, repositoryPath string, commitHash string) (string, error) {
	trimmedHash := strings.TrimSpace(commitHash)
	if len(trimmedHash) == 0 {
		return "", RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitRevListSubcommandConstant, gitParentsFlagConstant, gitMaxCountFlagConstant, trimmedHash})
	if executionError != nil {
		return "", OperationError{Operation: gitRevListSubcommandConstant, Subject: trimmedHash, Cause: executionError}
	}
	hashes := strings.Fields(executionResult.StandardOutput)
	if len(hashes) == 0 {
		return "", fmt.Errorf(unexpectedOutputTemplateConstant, gitRevListSubcommandConstant, trimmedHash, executionResult.StandardOutput)
	}
	if len(hashes) == 1 {
		return "", ErrNoParentCommit
	}
	return hashes[1], nil
}

// ChangedFiles lists paths that differ between parentHash and commitHash. Renames appear as a deletion and an addition.
func (manager *RepositoryManager) ChangedFiles(executionContext context.Context, repositoryPath string, parentHash string, commitHash string) ([]string, error) {
	trimmedParent := strings.TrimSpace(parentHash)
	trimmedCommit := strings.TrimSpace(commitHash)
	if len(trimmedParent) == 0 || len(trimmedCommit) == 0 {
		return nil, RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitDiffSubcommandConstant, gitNameOnlyFlagConstant, gitNoRenamesFlagConstant, gitNullTerminatedFlagConstant, trimmedParent, trimmedCommit})
	if executionError != nil {
		return nil, OperationError{Operation: gitDiffSubcommandConstant, Subject: trimmedCommit, Cause: executionError}
	}
	return splitNonEmpty(executionResult.StandardOutput, nullSeparatorConstant), nil
}

// ReadTreeEntry looks up a single path in a commit tree. The boolean is false when the path is absent.
func (manager *RepositoryManager) ReadTreeEntry(executionContext context.Context, repositoryPath string, commitHash string, filePath string) (TreeEntry, bool, error) {
	trimmedHash := strings.TrimSpace(commitHash)
	if len(trimmedHash) == 0 {
		return TreeEntry{}, false, RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	if len(filePath) == 0 {
		return TreeEntry{}, false, RequiredValueError{FieldName: pathFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitLsTreeSubcommandConstant, gitNullTerminatedFlagConstant, trimmedHash, gitPathSeparatorArgumentConstant, filePath})
	if executionError != nil {
		return TreeEntry{}, false, OperationError{Operation: gitLsTreeSubcommandConstant, Subject: filePath, Cause: executionError}
	}
	for _, record := range splitNonEmpty(executionResult.StandardOutput, nullSeparatorConstant) {
		entry, parsed := parseTreeEntry(record)
		if !parsed {
			return TreeEntry{}, false, fmt.Errorf(unexpectedOutputTemplateConstant, gitLsTreeSubcommandConstant, filePath, record)
		}
		if entry.Path == filePath {
			return entry, true, nil
		}
	}
	return TreeEntry{}, false, nil
}

// ReadBlob returns the raw content of a blob object.
func (manager *RepositoryManager) ReadBlob(executionContext context.Context, repositoryPath string, objectID string) ([]byte, error) {
	trimmedObjectID := strings.TrimSpace(objectID)
	if len(trimmedObjectID) == 0 {
		return nil, RequiredValueError{FieldName: objectFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitCatFileSubcommandConstant, gitBlobObjectTypeConstant, trimmedObjectID})
	if executionError != nil {
		return nil, OperationError{Operation: gitCatFileSubcommandConstant, Subject: trimmedObjectID, Cause: executionError}
	}
	return []byte(executionResult.StandardOutput), nil
}

// FetchBranch updates refs/remotes/<remote>/<branch> from the remote and returns the tracking ref name.
func (manager *RepositoryManager) FetchBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string) (string, error) {
	trimmedRemote := strings.TrimSpace(remoteName)
	trimmedBranch := strings.TrimSpace(branchName)
	if len(trimmedRemote) == 0 {
		return "", RequiredValueError{FieldName: remoteFieldNameConstant}
	}
	if len(trimmedBranch) == 0 {
		return "", RequiredValueError{FieldName: branchFieldNameConstant}
	}
	refspec := fmt.Sprintf(gitFetchRefspecTemplateConstant, trimmedBranch, trimmedRemote, trimmedBranch)
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitFetchSubcommandConstant, gitNoTagsFlagConstant, trimmedRemote, refspec},
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledConstant},
	})
	if executionError != nil {
		return "", OperationError{Operation: gitFetchSubcommandConstant, Subject: trimmedBranch, Cause: executionError}
	}
	return fmt.Sprintf(gitRemoteTrackingRefTemplateConstant, trimmedRemote, trimmedBranch), nil
}

// AddDetachedWorktree creates a worktree at worktreePath with HEAD detached at revision.
func (manager *RepositoryManager) AddDetachedWorktree(executionContext context.Context, repositoryPath string, worktreePath string, revision string) error {
	if len(strings.TrimSpace(worktreePath)) == 0 {
		return RequiredValueError{FieldName: worktreePathFieldNameConstant}
	}
	if len(strings.TrimSpace(revision)) == 0 {
		return RequiredValueError{FieldName: revisionFieldNameConstant}
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitWorktreeSubcommandConstant, gitWorktreeAddActionConstant, gitDetachFlagConstant, worktreePath, revision})
	if executionError != nil {
		return OperationError{Operation: gitWorktreeSubcommandConstant + " " + gitWorktreeAddActionConstant, Subject: worktreePath, Cause: executionError}
	}
	return nil
}

// RemoveWorktree force-removes a worktree and its administrative files.
func (manager *RepositoryManager) RemoveWorktree(executionContext context.Context, repositoryPath string, worktreePath string) error {
	if len(strings.TrimSpace(worktreePath)) == 0 {
		return RequiredValueError{FieldName: worktreePathFieldNameConstant}
	}
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitWorktreeSubcommandConstant, gitWorktreeRemoveActionConstant, gitForceFlagConstant, worktreePath})
	if executionError != nil {
		return OperationError{Operation: gitWorktreeSubcommandConstant + " " + gitWorktreeRemoveActionConstant, Subject: worktreePath, Cause: executionError}
	}
	return nil
}

// PruneWorktrees drops administrative records of worktrees whose directories are gone.
func (manager *RepositoryManager) PruneWorktrees(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, []string{gitWorktreeSubcommandConstant, gitWorktreePruneActionConstant})
	if executionError != nil {
		return OperationError{Operation: gitWorktreeSubcommandConstant + " " + gitWorktreePruneActionConstant, Subject: repositoryPath, Cause: executionError}
	}
	return nil
}

// StageAll stages every change in the worktree, including deletions.
func (manager *RepositoryManager) StageAll(executionContext context.Context, worktreePath string) error {
	_, executionError := manager.run(executionContext, worktreePath, []string{gitAddSubcommandConstant, gitAllFlagConstant})
	if executionError != nil {
		return OperationError{Operation: gitAddSubcommandConstant, Subject: worktreePath, Cause: executionError}
	}
	return nil
}

// IsClean reports whether the worktree has neither staged nor unstaged changes.
func (manager *RepositoryManager) IsClean(executionContext context.Context, worktreePath string) (bool, error) {
	executionResult, executionError := manager.run(executionContext, worktreePath, []string{gitStatusSubcommandConstant, gitPorcelainFlagConstant})
	if executionError != nil {
		return false, OperationError{Operation: gitStatusSubcommandConstant, Subject: worktreePath, Cause: executionError}
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// Commit records the staged changes. The message is passed on standard input.
func (manager *RepositoryManager) Commit(executionContext context.Context, worktreePath string, request CommitRequest) error {
	if len(strings.TrimSpace(request.Message)) == 0 {
		return RequiredValueError{FieldName: messageFieldNameConstant}
	}
	environment := map[string]string{}
	assignIdentity(environment, request.Author, gitAuthorNameEnvironmentConstant, gitAuthorEmailEnvironmentConstant, gitAuthorDateEnvironmentConstant)
	assignIdentity(environment, request.Committer, gitCommitterNameEnvironmentConstant, gitCommitterEmailEnvironmentConstant, "")

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCommitSubcommandConstant, gitNoVerifyFlagConstant, gitMessageFromStdinFlagConstant, gitStandardInputArgumentConstant},
		WorkingDirectory:     worktreePath,
		EnvironmentVariables: environment,
		StandardInput:        []byte(request.Message),
	})
	if executionError != nil {
		return OperationError{Operation: gitCommitSubcommandConstant, Subject: worktreePath, Cause: executionError}
	}
	return nil
}

// PushHead pushes the worktree HEAD to refs/heads/<branch> on the remote.
func (manager *RepositoryManager) PushHead(executionContext context.Context, worktreePath string, request PushRequest) error {
	trimmedRemote := strings.TrimSpace(request.RemoteName)
	trimmedBranch := strings.TrimSpace(request.BranchName)
	if len(trimmedRemote) == 0 {
		return RequiredValueError{FieldName: remoteFieldNameConstant}
	}
	if len(trimmedBranch) == 0 {
		return RequiredValueError{FieldName: branchFieldNameConstant}
	}
	arguments := []string{gitPushSubcommandConstant}
	if request.Force {
		arguments = append(arguments, gitForceFlagConstant)
	}
	arguments = append(arguments, trimmedRemote, fmt.Sprintf(gitPushRefspecTemplateConstant, trimmedBranch))

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     worktreePath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentConstant: gitTerminalPromptDisabledConstant},
	})
	if executionError != nil {
		return OperationError{Operation: gitPushSubcommandConstant, Subject: trimmedBranch, Cause: executionError}
	}
	return nil
}

// GetRemoteURL returns the configured URL of a remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		return "", RequiredValueError{FieldName: remoteFieldNameConstant}
	}
	executionResult, executionError := manager.run(executionContext, repositoryPath, []string{gitRemoteSubcommandConstant, gitGetURLActionConstant, trimmedRemote})
	if executionError != nil {
		return "", OperationError{Operation: gitRemoteSubcommandConstant, Subject: trimmedRemote, Cause: executionError}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) run(executionContext context.Context, workingDirectory string, arguments []string) (execshell.ExecutionResult, error) {
	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: workingDirectory})
}

func assignIdentity(environment map[string]string, identity Identity, nameKey string, emailKey string, dateKey string) {
	if trimmedName := strings.TrimSpace(identity.Name); len(trimmedName) > 0 {
		environment[nameKey] = trimmedName
	}
	if trimmedEmail := strings.TrimSpace(identity.Email); len(trimmedEmail) > 0 {
		environment[emailKey] = trimmedEmail
	}
	if trimmedDate := strings.TrimSpace(identity.Date); len(trimmedDate) > 0 && len(dateKey) > 0 {
		environment[dateKey] = trimmedDate
	}
}

// parseTreeEntry parses "<mode> <type> <object>\t<path>".
func parseTreeEntry(record string) (TreeEntry, bool) {
	tabIndex := strings.Index(record, tabSeparatorConstant)
	if tabIndex == -1 {
		return TreeEntry{}, false
	}
	headerFields := strings.Fields(record[:tabIndex])
	if len(headerFields) != treeEntryHeaderFieldCountConstant {
		return TreeEntry{}, false
	}
	return TreeEntry{
		Mode:       headerFields[0],
		ObjectType: headerFields[1],
		ObjectID:   headerFields[2],
		Path:       record[tabIndex+1:],
	}, true
}

// splitNonEmpty drops empty records. Newline separated records are trimmed; NUL separated
// records keep their whitespace because they carry file paths verbatim.
func splitNonEmpty(output string, separator string) []string {
	rawValues := strings.Split(output, separator)
	values := make([]string, 0, len(rawValues))
	for _, rawValue := range rawValues {
		trimmedValue := strings.TrimSpace(rawValue)
		if separator == nullSeparatorConstant {
			trimmedValue = strings.TrimLeft(rawValue, newlineSeparatorConstant)
		}
		if len(trimmedValue) == 0 {
			continue
		}
		values = append(values, trimmedValue)
	}
	return values
}
