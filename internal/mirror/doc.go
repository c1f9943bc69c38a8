// Package mirror drives one debsync invocation: it locates packages, walks the pushed commits
// oldest first, routes each commit's changed files, and syncs every affected release branch.
package mirror
