package githubauth

import (
	"errors"
	"strings"
)

// Environment variable names consulted for a GitHub token, in order.
const (
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"

	tokenUnavailableMessageConstant = "github token not configured (set review.token, GITHUB_TOKEN or GH_TOKEN)"
)

// ErrTokenUnavailable indicates no token was configured or found in the environment.
var ErrTokenUnavailable = errors.New(tokenUnavailableMessageConstant)

var tokenPreference = []string{
	EnvGitHubToken,
	EnvGitHubCLIToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup reports the value of an environment variable. os.LookupEnv satisfies it.
type EnvironmentLookup func(key string) (string, bool)

// ResolveToken returns the configured token when present, otherwise the first non-blank
// token variable observed through lookup.
func ResolveToken(configuredToken string, lookup EnvironmentLookup) (string, error) {
	if trimmed := strings.TrimSpace(configuredToken); len(trimmed) > 0 {
		return trimmed, nil
	}
	if lookup == nil {
		return "", ErrTokenUnavailable
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
			return trimmed, nil
		}
	}
	return "", ErrTokenUnavailable
}
