package branchsync_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/branchsync"
)

func TestCommitMessage(testInstance *testing.T) {
	testCases := []struct {
		name     string
		message  string
		expected string
	}{
		{
			name:     "plain_message",
			message:  "  Fix typo\n\n",
			expected: "Fix typo\nSource: abc123",
		},
		{
			name:     "merge_marker",
			message:  "Merge pull request #17 from org/branch\n\nDetails",
			expected: "Merge pull request #17 from org/branch\n\nDetails\nSource: abc123 | PR: #17",
		},
		{
			name:     "hash_without_marker",
			message:  "Refs #9 in tracker",
			expected: "Refs #9 in tracker\nSource: abc123",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, branchsync.CommitMessage(testCase.message, "abc123"))
		})
	}
}

func TestPullRequestNumber(testInstance *testing.T) {
	number, found := branchsync.PullRequestNumber("Merge pull request #123 from a/b")
	require.True(testInstance, found)
	require.Equal(testInstance, "123", number)

	_, found = branchsync.PullRequestNumber("Merge pull request from a/b")
	require.False(testInstance, found)
}

func TestNaming(testInstance *testing.T) {
	require.Equal(testInstance, "sync-debian-jazzy-noble-foo_pkg-0123456", branchsync.SideBranchName("debian/jazzy/noble/foo_pkg", "0123456789abcdef"))
	require.Equal(testInstance, "worktree_debian_jazzy_noble_foo_pkg", branchsync.WorktreeDirectoryName("debian/jazzy/noble/foo_pkg"))
	require.Equal(testInstance, "Auto-sync: 0123456", branchsync.ReviewTitle("0123456789abcdef"))
	require.Equal(testInstance, "abc", branchsync.ShortHash("abc"))
	require.Equal(testInstance, "Source commit: 0123456789\nMessage: Merge pull request #5 from x\nOriginal PR: #5", branchsync.ReviewBody("Merge pull request #5 from x\n", "0123456789"))
}

func TestParsePublishMode(testInstance *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		expected    branchsync.PublishMode
		expectError bool
	}{
		{name: "blank_defaults_to_pull_request", raw: "", expected: branchsync.PublishModePullRequest},
		{name: "pull_request", raw: "PR", expected: branchsync.PublishModePullRequest},
		{name: "direct", raw: " direct ", expected: branchsync.PublishModeDirect},
		{name: "unknown", raw: "merge", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			mode, parseError := branchsync.ParsePublishMode(testCase.raw)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, mode)
		})
	}
}
