package branchsync

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	sourceTrailerTemplateConstant      = "%s\nSource: %s"
	pullRequestTrailerTemplateConstant = " | PR: #%s"
	sideBranchTemplateConstant         = "sync-%s-%s"
	reviewTitleTemplateConstant        = "Auto-sync: %s"
	reviewBodyTemplateConstant         = "Source commit: %s\nMessage: %s"
	reviewOriginalPullTemplateConstant = "\nOriginal PR: #%s"
	worktreeDirectoryTemplateConstant  = "worktree_%s"
	shortHashLengthConstant            = 7
	branchSeparatorConstant            = "/"
	sideBranchSeparatorConstant        = "-"
	worktreeDirectorySeparatorConstant = "_"
	mergePullRequestExpressionConstant = `Merge pull request #(\d+)`
)

var mergePullRequestPattern = regexp.MustCompile(mergePullRequestExpressionConstant)

// PullRequestNumber extracts N from a "Merge pull request #N" marker. The boolean is false without a marker.
func PullRequestNumber(message string) (string, bool) {
	matches := mergePullRequestPattern.FindStringSubmatch(message)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// CommitMessage appends the source trailer, and the pull request trailer when present, to the original message.
func CommitMessage(originalMessage string, commitHash string) string {
	trimmedMessage := strings.TrimSpace(originalMessage)
	message := fmt.Sprintf(sourceTrailerTemplateConstant, trimmedMessage, commitHash)
	if number, found := PullRequestNumber(trimmedMessage); found {
		message += fmt.Sprintf(pullRequestTrailerTemplateConstant, number)
	}
	return message
}

// ShortHash returns the first seven characters of a commit hash.
func ShortHash(commitHash string) string {
	if len(commitHash) <= shortHashLengthConstant {
		return commitHash
	}
	return commitHash[:shortHashLengthConstant]
}

// SideBranchName returns sync-<target with / replaced by ->-<short hash>.
func SideBranchName(targetBranch string, commitHash string) string {
	flattened := strings.ReplaceAll(targetBranch, branchSeparatorConstant, sideBranchSeparatorConstant)
	return fmt.Sprintf(sideBranchTemplateConstant, flattened, ShortHash(commitHash))
}

// WorktreeDirectoryName returns worktree_<target with / replaced by _>.
func WorktreeDirectoryName(targetBranch string) string {
	return fmt.Sprintf(worktreeDirectoryTemplateConstant, strings.ReplaceAll(targetBranch, branchSeparatorConstant, worktreeDirectorySeparatorConstant))
}

// ReviewTitle returns the review request title for a commit.
func ReviewTitle(commitHash string) string {
	return fmt.Sprintf(reviewTitleTemplateConstant, ShortHash(commitHash))
}

// ReviewBody returns the review request body for a commit.
func ReviewBody(originalMessage string, commitHash string) string {
	trimmedMessage := strings.TrimSpace(originalMessage)
	body := fmt.Sprintf(reviewBodyTemplateConstant, commitHash, trimmedMessage)
	if number, found := PullRequestNumber(trimmedMessage); found {
		body += fmt.Sprintf(reviewOriginalPullTemplateConstant, number)
	}
	return body
}
