// Package gitrepo contains typed wrappers around the git executable.
//
// RepositoryManager covers the operations debsync needs to mirror commits:
// commit enumeration and metadata, tree and blob reads from the object store,
// detached worktrees, staging, committing with preserved authorship, and pushes.
// ParseRemoteURL turns remote strings into owner and repository coordinates.
package gitrepo
