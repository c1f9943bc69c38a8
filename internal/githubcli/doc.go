// Package githubcli wraps the GitHub CLI for opening and finding sync pull requests.
//
// Commands run through execshell so tests can substitute a recording executor.
package githubcli
