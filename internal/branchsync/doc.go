// Package branchsync replays the owned files of one mainline commit onto one release branch.
//
// Every sync runs in a detached worktree checked out at the remote tip of the target branch,
// so the caller's HEAD and local branches are never touched. The worktree is released on every
// exit path.
package branchsync
