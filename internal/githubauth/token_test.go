package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/githubauth"
)

func mapLookup(environment map[string]string) githubauth.EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := environment[key]
		return value, exists
	}
}

func TestResolveToken(t *testing.T) {
	testCases := []struct {
		name          string
		configured    string
		environment   map[string]string
		expectedToken string
		expectedError error
	}{
		{
			name:          "configured token wins",
			configured:    " configured ",
			environment:   map[string]string{githubauth.EnvGitHubToken: "actions"},
			expectedToken: "configured",
		},
		{
			name:          "actions token preferred over cli token",
			environment:   map[string]string{githubauth.EnvGitHubToken: "actions", githubauth.EnvGitHubCLIToken: "cli"},
			expectedToken: "actions",
		},
		{
			name:          "blank values are skipped",
			environment:   map[string]string{githubauth.EnvGitHubToken: "  ", githubauth.EnvGitHubAPIToken: "api"},
			expectedToken: "api",
		},
		{
			name:          "nothing available",
			environment:   map[string]string{},
			expectedError: githubauth.ErrTokenUnavailable,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			token, resolveError := githubauth.ResolveToken(testCase.configured, mapLookup(testCase.environment))
			if testCase.expectedError != nil {
				require.ErrorIs(t, resolveError, testCase.expectedError)
				return
			}
			require.NoError(t, resolveError)
			require.Equal(t, testCase.expectedToken, token)
		})
	}

	t.Run("nil lookup", func(t *testing.T) {
		_, resolveError := githubauth.ResolveToken("", nil)
		require.ErrorIs(t, resolveError, githubauth.ErrTokenUnavailable)
	})
}
