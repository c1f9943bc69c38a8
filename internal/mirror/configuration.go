package mirror

import (
	"strings"
	"time"

	"github.com/temirov/debsync/internal/branchsync"
	"github.com/temirov/debsync/internal/packages"
	"github.com/temirov/debsync/internal/routing"
)

const (
	// ReviewProviderGitHubCLI opens review requests through the gh executable.
	ReviewProviderGitHubCLI = "gh"
	// ReviewProviderGitHubAPI opens review requests through the GitHub REST API.
	ReviewProviderGitHubAPI = "api"

	defaultWorkspacePathConstant  = "."
	defaultRemoteNameConstant     = "origin"
	defaultBaseBranchConstant     = "main"
	defaultConcurrencyConstant    = 1
	defaultCommandTimeoutConstant = 2 * time.Minute
)

// Configuration groups the sync and review settings loaded by the CLI.
type Configuration struct {
	Sync   SyncConfiguration   `mapstructure:"sync"`
	Review ReviewConfiguration `mapstructure:"review"`
}

// SyncConfiguration captures how commits are selected and published.
type SyncConfiguration struct {
	Mode             string        `mapstructure:"mode"`
	WorkspacePath    string        `mapstructure:"path"`
	Before           string        `mapstructure:"before"`
	After            string        `mapstructure:"after"`
	FullHistory      bool          `mapstructure:"full"`
	RemoteName       string        `mapstructure:"remote"`
	BaseBranch       string        `mapstructure:"base_branch"`
	Series           string        `mapstructure:"series"`
	Distro           string        `mapstructure:"distro"`
	ManifestFileName string        `mapstructure:"manifest"`
	Concurrency      int           `mapstructure:"concurrency"`
	CommandTimeout   time.Duration `mapstructure:"command_timeout"`
	FailOnError      bool          `mapstructure:"fail_on_error"`
	CommitterName    string        `mapstructure:"committer_name"`
	CommitterEmail   string        `mapstructure:"committer_email"`
}

// ReviewConfiguration captures how review requests are opened.
type ReviewConfiguration struct {
	Provider   string `mapstructure:"provider"`
	Token      string `mapstructure:"token"`
	Repository string `mapstructure:"repository"`
	APIBaseURL string `mapstructure:"api_url"`
}

// DefaultConfiguration returns the baseline configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		Sync: SyncConfiguration{
			Mode:             string(branchsync.PublishModePullRequest),
			WorkspacePath:    defaultWorkspacePathConstant,
			RemoteName:       defaultRemoteNameConstant,
			BaseBranch:       defaultBaseBranchConstant,
			Series:           routing.DefaultSeries,
			Distro:           routing.DefaultDistro,
			ManifestFileName: packages.DefaultManifestFileName,
			Concurrency:      defaultConcurrencyConstant,
			CommandTimeout:   defaultCommandTimeoutConstant,
		},
		Review: ReviewConfiguration{
			Provider: ReviewProviderGitHubCLI,
		},
	}
}

// DefaultConfigurationValues exposes the defaults as viper keys under the provided prefixes.
func DefaultConfigurationValues(syncPrefix string, reviewPrefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		syncPrefix + ".mode":            defaults.Sync.Mode,
		syncPrefix + ".path":            defaults.Sync.WorkspacePath,
		syncPrefix + ".before":          defaults.Sync.Before,
		syncPrefix + ".after":           defaults.Sync.After,
		syncPrefix + ".full":            defaults.Sync.FullHistory,
		syncPrefix + ".remote":          defaults.Sync.RemoteName,
		syncPrefix + ".base_branch":     defaults.Sync.BaseBranch,
		syncPrefix + ".series":          defaults.Sync.Series,
		syncPrefix + ".distro":          defaults.Sync.Distro,
		syncPrefix + ".manifest":        defaults.Sync.ManifestFileName,
		syncPrefix + ".concurrency":     defaults.Sync.Concurrency,
		syncPrefix + ".command_timeout": defaults.Sync.CommandTimeout.String(),
		syncPrefix + ".fail_on_error":   defaults.Sync.FailOnError,
		syncPrefix + ".committer_name":  defaults.Sync.CommitterName,
		syncPrefix + ".committer_email": defaults.Sync.CommitterEmail,
		reviewPrefix + ".provider":      defaults.Review.Provider,
		reviewPrefix + ".token":         defaults.Review.Token,
		reviewPrefix + ".repository":    defaults.Review.Repository,
		reviewPrefix + ".api_url":       defaults.Review.APIBaseURL,
	}
}

// Sanitize trims values and substitutes defaults for blank or non-positive settings.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Sync.Mode = valueOrDefault(configuration.Sync.Mode, defaults.Sync.Mode)
	sanitized.Sync.WorkspacePath = valueOrDefault(configuration.Sync.WorkspacePath, defaults.Sync.WorkspacePath)
	sanitized.Sync.Before = strings.TrimSpace(configuration.Sync.Before)
	sanitized.Sync.After = strings.TrimSpace(configuration.Sync.After)
	sanitized.Sync.RemoteName = valueOrDefault(configuration.Sync.RemoteName, defaults.Sync.RemoteName)
	sanitized.Sync.BaseBranch = valueOrDefault(configuration.Sync.BaseBranch, defaults.Sync.BaseBranch)
	sanitized.Sync.Series = valueOrDefault(configuration.Sync.Series, defaults.Sync.Series)
	sanitized.Sync.Distro = valueOrDefault(configuration.Sync.Distro, defaults.Sync.Distro)
	sanitized.Sync.ManifestFileName = valueOrDefault(configuration.Sync.ManifestFileName, defaults.Sync.ManifestFileName)
	sanitized.Sync.CommitterName = strings.TrimSpace(configuration.Sync.CommitterName)
	sanitized.Sync.CommitterEmail = strings.TrimSpace(configuration.Sync.CommitterEmail)
	if configuration.Sync.Concurrency <= 0 {
		sanitized.Sync.Concurrency = defaults.Sync.Concurrency
	}
	if configuration.Sync.CommandTimeout <= 0 {
		sanitized.Sync.CommandTimeout = defaults.Sync.CommandTimeout
	}

	sanitized.Review.Provider = strings.ToLower(valueOrDefault(configuration.Review.Provider, defaults.Review.Provider))
	sanitized.Review.Token = strings.TrimSpace(configuration.Review.Token)
	sanitized.Review.Repository = strings.TrimSpace(configuration.Review.Repository)
	sanitized.Review.APIBaseURL = strings.TrimSpace(configuration.Review.APIBaseURL)

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return defaultValue
	}
	return trimmed
}
