package mirror_test

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/temirov/debsync/internal/gitrepo"
)

const (
	simulatedRemoteNameConstant = "origin"
	simulatedAuthorNameConstant = "Ada Lovelace"
	simulatedAuthorMailConstant = "ada@example.com"
	simulatedAuthorDateConstant = "2024-05-01T10:00:00+00:00"
)

type simulatedTree map[string]string

type simulatedCommit struct {
	hash    string
	parent  string
	message string
	tree    simulatedTree
}

type simulatedPush struct {
	branch string
	force  bool
}

// simulatedRepository models a mainline history, a remote with release branches, and worktrees on disk.
type simulatedRepository struct {
	mutex          sync.Mutex
	workspacePath  string
	topLevelPath   string
	commits        []simulatedCommit
	remoteBranches map[string]simulatedTree
	branchCommits  map[string][]string
	acquired       map[string]simulatedTree
	staged         map[string]simulatedTree
	messages       map[string]string
	pushes         []simulatedPush
	failingFetch   map[string]bool
}

func newSimulatedRepository(workspacePath string) *simulatedRepository {
	if resolvedPath, resolveError := filepath.EvalSymlinks(workspacePath); resolveError == nil {
		workspacePath = resolvedPath
	}
	return &simulatedRepository{
		workspacePath:  workspacePath,
		topLevelPath:   workspacePath,
		remoteBranches: map[string]simulatedTree{},
		branchCommits:  map[string][]string{},
		acquired:       map[string]simulatedTree{},
		staged:         map[string]simulatedTree{},
		messages:       map[string]string{},
		failingFetch:   map[string]bool{},
	}
}

// commit appends a commit whose tree is the parent tree with changes applied. An empty value deletes the path.
func (repository *simulatedRepository) commit(message string, changes map[string]string) string {
	tree := simulatedTree{}
	parent := ""
	if len(repository.commits) > 0 {
		last := repository.commits[len(repository.commits)-1]
		parent = last.hash
		for path, content := range last.tree {
			tree[path] = content
		}
	}
	for path, content := range changes {
		if len(content) == 0 {
			delete(tree, path)
			continue
		}
		tree[path] = content
	}
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(fmt.Sprintf("%d:%s", len(repository.commits), message))))
	repository.commits = append(repository.commits, simulatedCommit{hash: hash, parent: parent, message: message, tree: tree})
	return hash
}

func (repository *simulatedRepository) findCommit(revision string) (simulatedCommit, bool) {
	if revision == "HEAD" && len(repository.commits) > 0 {
		return repository.commits[len(repository.commits)-1], true
	}
	for _, candidate := range repository.commits {
		if candidate.hash == revision {
			return candidate, true
		}
	}
	return simulatedCommit{}, false
}

func (repository *simulatedRepository) IsWorkTree(_ context.Context, repositoryPath string) (bool, error) {
	return repositoryPath == repository.workspacePath, nil
}

func (repository *simulatedRepository) WorkTreeRoot(context.Context, string) (string, error) {
	return repository.topLevelPath, nil
}

func (repository *simulatedRepository) ResolveRevision(_ context.Context, _ string, revision string) (string, error) {
	found, exists := repository.findCommit(revision)
	if !exists {
		return "", errors.New("unknown revision " + revision)
	}
	return found.hash, nil
}

func (repository *simulatedRepository) ListCommits(_ context.Context, _ string, exclusiveBase string, head string) ([]string, error) {
	headCommit, exists := repository.findCommit(head)
	if !exists {
		return nil, errors.New("unknown revision " + head)
	}
	var hashes []string
	collecting := len(exclusiveBase) == 0
	for _, candidate := range repository.commits {
		if collecting {
			hashes = append(hashes, candidate.hash)
		}
		if candidate.hash == exclusiveBase {
			collecting = true
		}
		if candidate.hash == headCommit.hash {
			break
		}
	}
	return hashes, nil
}

func (repository *simulatedRepository) CommitMetadata(_ context.Context, _ string, commitHash string) (gitrepo.CommitMetadata, error) {
	found, exists := repository.findCommit(commitHash)
	if !exists {
		return gitrepo.CommitMetadata{}, errors.New("unknown commit " + commitHash)
	}
	return gitrepo.CommitMetadata{
		Hash:        found.hash,
		ShortHash:   found.hash[:7],
		AuthorName:  simulatedAuthorNameConstant,
		AuthorEmail: simulatedAuthorMailConstant,
		AuthorDate:  simulatedAuthorDateConstant,
		Message:     found.message,
	}, nil
}

func (repository *simulatedRepository) FirstParent(_ context.Context, _ string, commitHash string) (string, error) {
	found, exists := repository.findCommit(commitHash)
	if !exists {
		return "", errors.New("unknown commit " + commitHash)
	}
	if len(found.parent) == 0 {
		return "", gitrepo.ErrNoParentCommit
	}
	return found.parent, nil
}

func (repository *simulatedRepository) ChangedFiles(_ context.Context, _ string, parentHash string, commitHash string) ([]string, error) {
	parentCommit, _ := repository.findCommit(parentHash)
	currentCommit, _ := repository.findCommit(commitHash)
	changed := map[string]struct{}{}
	for path, content := range currentCommit.tree {
		if parentCommit.tree[path] != content {
			changed[path] = struct{}{}
		}
	}
	for path := range parentCommit.tree {
		if _, exists := currentCommit.tree[path]; !exists {
			changed[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(changed))
	for path := range changed {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (repository *simulatedRepository) FetchBranch(_ context.Context, _ string, remoteName string, branchName string) (string, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	if repository.failingFetch[branchName] {
		return "", errors.New("fatal: unable to access remote")
	}
	if _, exists := repository.remoteBranches[branchName]; !exists {
		return "", errors.New("fatal: couldn't find remote ref " + branchName)
	}
	return remoteName + "/" + branchName, nil
}

func (repository *simulatedRepository) AddDetachedWorktree(_ context.Context, _ string, worktreePath string, revision string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	branchName := strings.TrimPrefix(revision, simulatedRemoteNameConstant+"/")
	tree := repository.remoteBranches[branchName]
	for path, content := range tree {
		absolutePath := filepath.Join(worktreePath, filepath.FromSlash(path))
		if mkdirError := os.MkdirAll(filepath.Dir(absolutePath), 0o755); mkdirError != nil {
			return mkdirError
		}
		if writeError := os.WriteFile(absolutePath, []byte(content), 0o644); writeError != nil {
			return writeError
		}
	}
	if mkdirError := os.MkdirAll(worktreePath, 0o755); mkdirError != nil {
		return mkdirError
	}
	repository.acquired[worktreePath] = tree
	return nil
}

func (repository *simulatedRepository) RemoveWorktree(_ context.Context, _ string, worktreePath string) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	delete(repository.acquired, worktreePath)
	delete(repository.staged, worktreePath)
	delete(repository.messages, worktreePath)
	return os.RemoveAll(worktreePath)
}

func (repository *simulatedRepository) PruneWorktrees(context.Context, string) error {
	return nil
}

func (repository *simulatedRepository) ReadTreeEntry(_ context.Context, _ string, commitHash string, filePath string) (gitrepo.TreeEntry, bool, error) {
	found, _ := repository.findCommit(commitHash)
	if _, exists := found.tree[filePath]; !exists {
		return gitrepo.TreeEntry{}, false, nil
	}
	return gitrepo.TreeEntry{Mode: "100644", ObjectType: "blob", ObjectID: commitHash + ":" + filePath, Path: filePath}, true, nil
}

func (repository *simulatedRepository) ReadBlob(_ context.Context, _ string, objectID string) ([]byte, error) {
	commitHash, filePath, _ := strings.Cut(objectID, ":")
	found, _ := repository.findCommit(commitHash)
	content, exists := found.tree[filePath]
	if !exists {
		return nil, errors.New("missing object " + objectID)
	}
	return []byte(content), nil
}

func (repository *simulatedRepository) StageAll(_ context.Context, worktreePath string) error {
	tree := simulatedTree{}
	walkError := filepath.WalkDir(worktreePath, func(path string, entry fs.DirEntry, walkError error) error {
		if walkError != nil || entry.IsDir() {
			return walkError
		}
		relativePath, relativeError := filepath.Rel(worktreePath, path)
		if relativeError != nil {
			return relativeError
		}
		content, readError := os.ReadFile(path)
		if readError != nil {
			return readError
		}
		tree[filepath.ToSlash(relativePath)] = string(content)
		return nil
	})
	if walkError != nil {
		return walkError
	}
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.staged[worktreePath] = tree
	return nil
}

func (repository *simulatedRepository) IsClean(_ context.Context, worktreePath string) (bool, error) {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	staged := repository.staged[worktreePath]
	acquired := repository.acquired[worktreePath]
	if len(staged) != len(acquired) {
		return false, nil
	}
	for path, content := range staged {
		if acquired[path] != content {
			return false, nil
		}
	}
	return true, nil
}

func (repository *simulatedRepository) Commit(_ context.Context, worktreePath string, request gitrepo.CommitRequest) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.messages[worktreePath] = request.Message
	return nil
}

func (repository *simulatedRepository) PushHead(_ context.Context, worktreePath string, request gitrepo.PushRequest) error {
	repository.mutex.Lock()
	defer repository.mutex.Unlock()
	repository.remoteBranches[request.BranchName] = repository.staged[worktreePath]
	repository.branchCommits[request.BranchName] = append(repository.branchCommits[request.BranchName], repository.messages[worktreePath])
	repository.pushes = append(repository.pushes, simulatedPush{branch: request.BranchName, force: request.Force})
	return nil
}
