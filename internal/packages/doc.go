// Package packages discovers the independently releasable packages of a workspace.
//
// A directory holding a manifest (package.xml by default) is a package root. A
// manifest at the workspace root puts the workspace in single-package mode;
// otherwise the tree is walked depth first and descent stops below every root.
package packages
