package mirror_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/mirror"
)

func TestConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    mirror.Configuration
		expected func(mirror.Configuration) mirror.Configuration
	}{
		{
			name:  "zero value receives defaults",
			input: mirror.Configuration{},
			expected: func(defaults mirror.Configuration) mirror.Configuration {
				return defaults
			},
		},
		{
			name: "explicit values are trimmed and kept",
			input: mirror.Configuration{
				Sync: mirror.SyncConfiguration{
					Mode:           " direct ",
					WorkspacePath:  "/srv/robot",
					Before:         " abc ",
					After:          "def",
					Series:         "humble",
					Distro:         "jammy",
					Concurrency:    4,
					CommandTimeout: 30 * time.Second,
					CommitterName:  " Release Bot ",
				},
				Review: mirror.ReviewConfiguration{Provider: "API", Repository: " example/robot "},
			},
			expected: func(defaults mirror.Configuration) mirror.Configuration {
				expected := defaults
				expected.Sync.Mode = "direct"
				expected.Sync.WorkspacePath = "/srv/robot"
				expected.Sync.Before = "abc"
				expected.Sync.After = "def"
				expected.Sync.Series = "humble"
				expected.Sync.Distro = "jammy"
				expected.Sync.Concurrency = 4
				expected.Sync.CommandTimeout = 30 * time.Second
				expected.Sync.CommitterName = "Release Bot"
				expected.Review.Provider = mirror.ReviewProviderGitHubAPI
				expected.Review.Repository = "example/robot"
				return expected
			},
		},
		{
			name: "non-positive numbers fall back",
			input: mirror.Configuration{
				Sync: mirror.SyncConfiguration{Concurrency: -3, CommandTimeout: -time.Second},
			},
			expected: func(defaults mirror.Configuration) mirror.Configuration {
				return defaults
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected(mirror.DefaultConfiguration()), testCase.input.Sanitize())
		})
	}
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	values := mirror.DefaultConfigurationValues("sync", "review")
	require.Equal(testInstance, "pr", values["sync.mode"])
	require.Equal(testInstance, "jazzy", values["sync.series"])
	require.Equal(testInstance, "noble", values["sync.distro"])
	require.Equal(testInstance, "package.xml", values["sync.manifest"])
	require.Equal(testInstance, "2m0s", values["sync.command_timeout"])
	require.Equal(testInstance, "gh", values["review.provider"])
	require.Contains(testInstance, values, "review.token")
}
