package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/debsync/internal/branchsync"
	"github.com/temirov/debsync/internal/execshell"
	"github.com/temirov/debsync/internal/filesystem"
	"github.com/temirov/debsync/internal/githubapi"
	"github.com/temirov/debsync/internal/githubauth"
	"github.com/temirov/debsync/internal/githubcli"
	"github.com/temirov/debsync/internal/gitrepo"
	"github.com/temirov/debsync/internal/packages"
	"github.com/temirov/debsync/internal/routing"
	"github.com/temirov/debsync/internal/ui"
	"github.com/temirov/debsync/internal/utils/flags"
)

const (
	syncCommandUseConstant                  = "sync"
	syncCommandShortDescriptionConstant     = "Mirror pushed commits into per-package release branches"
	syncCommandLongDescriptionConstant      = "sync replays every commit of a push onto the debian/<series>/<distro>/<package> branch of each package it touches, either directly or through a pull request."
	packagesCommandUseConstant              = "packages"
	packagesCommandShortDescriptionConstant = "List the packages of a workspace"
	packagesCommandLongDescriptionConstant  = "packages locates package manifests beneath the workspace and prints the package roots with their names as YAML."
	flagModeNameConstant                    = "mode"
	flagModeDescriptionConstant             = "Publish mode"
	flagPathNameConstant                    = "path"
	flagPathDescriptionConstant             = "Workspace path"
	flagBeforeNameConstant                  = "before"
	flagBeforeDescriptionConstant           = "Commit preceding the push (defaults to GITHUB_EVENT_BEFORE)"
	flagAfterNameConstant                   = "after"
	flagAfterDescriptionConstant            = "Head commit of the push (defaults to GITHUB_SHA, then HEAD)"
	flagFullNameConstant                    = "full"
	flagFullDescriptionConstant             = "Process the whole history reachable from the head commit"
	flagRemoteNameConstant                  = "remote"
	flagRemoteDescriptionConstant           = "Remote holding the release branches"
	flagBaseBranchNameConstant              = "base-branch"
	flagBaseBranchDescriptionConstant       = "Mainline branch the commits come from"
	flagSeriesNameConstant                  = "series"
	flagSeriesDescriptionConstant           = "Distribution series used in release branch names"
	flagDistroNameConstant                  = "distro"
	flagDistroDescriptionConstant           = "Distribution codename used in release branch names"
	flagManifestNameConstant                = "manifest"
	flagManifestDescriptionConstant         = "Package manifest file name"
	flagProviderNameConstant                = "provider"
	flagProviderDescriptionConstant         = "Review request provider"
	flagConcurrencyNameConstant             = "concurrency"
	flagConcurrencyDescriptionConstant      = "Maximum branches synced in parallel for one commit"
	flagTimeoutNameConstant                 = "timeout"
	flagTimeoutDescriptionConstant          = "Timeout for each git or gh invocation"
	flagFailOnErrorNameConstant             = "fail-on-error"
	flagFailOnErrorDescriptionConstant      = "Exit non-zero when any branch fails to sync"
	modeChoiceLabelConstant                 = "mode"
	providerChoiceLabelConstant             = "provider"
	syncFailuresMessageConstant             = "one or more branches failed to sync"
	syncFailuresTemplateConstant            = "%w: %d failed"
	syncExecutionErrorTemplateConstant      = "sync failed: %w"
	packagesExecutionErrorTemplateConstant  = "package discovery failed: %w"
	repositoryManagerErrorTemplateConstant  = "unable to construct repository manager: %w"
	reviewRequesterErrorTemplateConstant    = "unable to construct review requester: %w"
	remoteLookupErrorTemplateConstant       = "unable to determine repository from remote %s: %w"
	invalidRepositoryTemplateConstant       = "invalid repository %q (expected owner/name)"
	repositorySeparatorConstant             = "/"
	runStartedMessageConstant               = "Sync started"
	runFinishedMessageConstant              = "Sync finished"
	logFieldWorkspaceConstant               = "workspace"
	logFieldRangeConstant                   = "range"
	logFieldModeConstant                    = "mode"
	logFieldProviderConstant                = "provider"
	logFieldSyncedConstant                  = "synced"
	logFieldUnchangedConstant               = "unchanged"
	logFieldFailedConstant                  = "failed"
	logFieldSkippedConstant                 = "skipped_commits"
)

// ErrSyncFailures indicates that --fail-on-error was requested and some branches failed.
var ErrSyncFailures = errors.New(syncFailuresMessageConstant)

var (
	publishModeChoices    = []string{string(branchsync.PublishModePullRequest), string(branchsync.PublishModeDirect)}
	reviewProviderChoices = []string{ReviewProviderGitHubCLI, ReviewProviderGitHubAPI}
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandExecutor runs git and gh.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Runner executes a mirror run.
type Runner interface {
	Run(executionContext context.Context, options Options) (Summary, error)
}

// RunnerProvider constructs a Runner from dependencies.
type RunnerProvider func(dependencies ServiceDependencies) (Runner, error)

// SyncCommandBuilder assembles the sync command.
type SyncCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() Configuration
	Executor                     CommandExecutor
	RunnerProvider               RunnerProvider
	EnvironmentLookup            githubauth.EnvironmentLookup
}

// Build constructs the sync command.
func (builder *SyncCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           syncCommandUseConstant,
		Short:         syncCommandShortDescriptionConstant,
		Long:          syncCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().String(flagModeNameConstant, defaults.Sync.Mode, flags.FormatChoiceUsage(defaults.Sync.Mode, publishModeChoices, flagModeDescriptionConstant))
	command.Flags().String(flagPathNameConstant, defaults.Sync.WorkspacePath, flagPathDescriptionConstant)
	command.Flags().String(flagBeforeNameConstant, "", flagBeforeDescriptionConstant)
	command.Flags().String(flagAfterNameConstant, "", flagAfterDescriptionConstant)
	command.Flags().Bool(flagFullNameConstant, false, flagFullDescriptionConstant)
	command.Flags().String(flagRemoteNameConstant, defaults.Sync.RemoteName, flagRemoteDescriptionConstant)
	command.Flags().String(flagBaseBranchNameConstant, defaults.Sync.BaseBranch, flagBaseBranchDescriptionConstant)
	command.Flags().String(flagSeriesNameConstant, defaults.Sync.Series, flagSeriesDescriptionConstant)
	command.Flags().String(flagDistroNameConstant, defaults.Sync.Distro, flagDistroDescriptionConstant)
	command.Flags().String(flagManifestNameConstant, defaults.Sync.ManifestFileName, flagManifestDescriptionConstant)
	command.Flags().String(flagProviderNameConstant, defaults.Review.Provider, flags.FormatChoiceUsage(defaults.Review.Provider, reviewProviderChoices, flagProviderDescriptionConstant))
	command.Flags().Int(flagConcurrencyNameConstant, defaults.Sync.Concurrency, flagConcurrencyDescriptionConstant)
	command.Flags().Duration(flagTimeoutNameConstant, defaults.Sync.CommandTimeout, flagTimeoutDescriptionConstant)
	command.Flags().Bool(flagFailOnErrorNameConstant, false, flagFailOnErrorDescriptionConstant)

	return command, nil
}

func (builder *SyncCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := applySyncFlags(command.Flags(), builder.resolveConfiguration()).Sanitize()

	modeValue, modeError := flags.ParseChoice(modeChoiceLabelConstant, configuration.Sync.Mode, string(branchsync.PublishModePullRequest), publishModeChoices)
	if modeError != nil {
		return modeError
	}
	mode, parseModeError := branchsync.ParsePublishMode(modeValue)
	if parseModeError != nil {
		return parseModeError
	}
	provider, providerError := flags.ParseChoice(providerChoiceLabelConstant, configuration.Review.Provider, ReviewProviderGitHubCLI, reviewProviderChoices)
	if providerError != nil {
		return providerError
	}

	workspacePath, absoluteError := filepath.Abs(configuration.Sync.WorkspacePath)
	if absoluteError != nil {
		return absoluteError
	}

	logger := resolveLogger(builder.LoggerProvider)
	executor, executorError := builder.resolveExecutor(logger, configuration.Sync.CommandTimeout)
	if executorError != nil {
		return executorError
	}
	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerErrorTemplateConstant, managerError)
	}

	var reviewer branchsync.ReviewRequester
	if mode == branchsync.PublishModePullRequest {
		resolvedReviewer, reviewerError := resolveReviewer(command.Context(), provider, configuration, executor, repositoryManager, workspacePath, builder.resolveEnvironmentLookup())
		if reviewerError != nil {
			return fmt.Errorf(reviewRequesterErrorTemplateConstant, reviewerError)
		}
		reviewer = resolvedReviewer
	}

	runner, runnerError := builder.resolveRunner(ServiceDependencies{
		Repository: repositoryManager,
		Reviewer:   reviewer,
		FileSystem: filesystem.OSFileSystem{},
		Reporter:   ui.NewWriterReporter(command.OutOrStdout()),
		Logger:     logger,
	})
	if runnerError != nil {
		return runnerError
	}

	options := Options{
		WorkspacePath:    workspacePath,
		Range:            NewCommitRange(configuration.Sync.Before, configuration.Sync.After, configuration.Sync.FullHistory),
		Mode:             mode,
		RemoteName:       configuration.Sync.RemoteName,
		BaseBranch:       configuration.Sync.BaseBranch,
		Namer:            routing.NewBranchNamer(configuration.Sync.Series, configuration.Sync.Distro),
		ManifestFileName: configuration.Sync.ManifestFileName,
		Concurrency:      configuration.Sync.Concurrency,
		Committer:        gitrepo.Identity{Name: configuration.Sync.CommitterName, Email: configuration.Sync.CommitterEmail},
	}

	logger.Info(runStartedMessageConstant,
		zap.String(logFieldWorkspaceConstant, workspacePath),
		zap.String(logFieldRangeConstant, options.Range.String()),
		zap.String(logFieldModeConstant, string(mode)),
		zap.String(logFieldProviderConstant, provider),
	)

	summary, runError := runner.Run(command.Context(), options)
	if runError != nil {
		return fmt.Errorf(syncExecutionErrorTemplateConstant, runError)
	}

	failedCount := summary.Count(branchsync.StatusFailed)
	logger.Info(runFinishedMessageConstant,
		zap.Int(logFieldSyncedConstant, summary.Count(branchsync.StatusSynced)),
		zap.Int(logFieldUnchangedConstant, summary.Count(branchsync.StatusNoChange)),
		zap.Int(logFieldFailedConstant, failedCount),
		zap.Int(logFieldSkippedConstant, summary.CommitsSkipped),
	)
	if configuration.Sync.FailOnError && failedCount > 0 {
		return fmt.Errorf(syncFailuresTemplateConstant, ErrSyncFailures, failedCount)
	}
	return nil
}

func (builder *SyncCommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *SyncCommandBuilder) resolveExecutor(logger *zap.Logger, commandTimeout time.Duration) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	executorOptions := []execshell.ExecutorOption{execshell.WithCommandTimeout(commandTimeout)}
	executorLogger := logger
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
		executorLogger = zap.NewNop()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(executorLogger, execshell.NewOSCommandRunner(), executorOptions...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *SyncCommandBuilder) resolveEnvironmentLookup() githubauth.EnvironmentLookup {
	if builder.EnvironmentLookup != nil {
		return builder.EnvironmentLookup
	}
	return os.LookupEnv
}

func (builder *SyncCommandBuilder) resolveRunner(dependencies ServiceDependencies) (Runner, error) {
	if builder.RunnerProvider != nil {
		return builder.RunnerProvider(dependencies)
	}
	return NewService(dependencies)
}

// applySyncFlags overlays only the flags the user set explicitly.
func applySyncFlags(commandFlags *pflag.FlagSet, configuration Configuration) Configuration {
	updated := configuration
	if commandFlags.Changed(flagModeNameConstant) {
		updated.Sync.Mode, _ = commandFlags.GetString(flagModeNameConstant)
	}
	if commandFlags.Changed(flagPathNameConstant) {
		updated.Sync.WorkspacePath, _ = commandFlags.GetString(flagPathNameConstant)
	}
	if commandFlags.Changed(flagBeforeNameConstant) {
		updated.Sync.Before, _ = commandFlags.GetString(flagBeforeNameConstant)
	}
	if commandFlags.Changed(flagAfterNameConstant) {
		updated.Sync.After, _ = commandFlags.GetString(flagAfterNameConstant)
	}
	if commandFlags.Changed(flagFullNameConstant) {
		updated.Sync.FullHistory, _ = commandFlags.GetBool(flagFullNameConstant)
	}
	if commandFlags.Changed(flagRemoteNameConstant) {
		updated.Sync.RemoteName, _ = commandFlags.GetString(flagRemoteNameConstant)
	}
	if commandFlags.Changed(flagBaseBranchNameConstant) {
		updated.Sync.BaseBranch, _ = commandFlags.GetString(flagBaseBranchNameConstant)
	}
	if commandFlags.Changed(flagSeriesNameConstant) {
		updated.Sync.Series, _ = commandFlags.GetString(flagSeriesNameConstant)
	}
	if commandFlags.Changed(flagDistroNameConstant) {
		updated.Sync.Distro, _ = commandFlags.GetString(flagDistroNameConstant)
	}
	if commandFlags.Changed(flagManifestNameConstant) {
		updated.Sync.ManifestFileName, _ = commandFlags.GetString(flagManifestNameConstant)
	}
	if commandFlags.Changed(flagProviderNameConstant) {
		updated.Review.Provider, _ = commandFlags.GetString(flagProviderNameConstant)
	}
	if commandFlags.Changed(flagConcurrencyNameConstant) {
		updated.Sync.Concurrency, _ = commandFlags.GetInt(flagConcurrencyNameConstant)
	}
	if commandFlags.Changed(flagTimeoutNameConstant) {
		updated.Sync.CommandTimeout, _ = commandFlags.GetDuration(flagTimeoutNameConstant)
	}
	if commandFlags.Changed(flagFailOnErrorNameConstant) {
		updated.Sync.FailOnError, _ = commandFlags.GetBool(flagFailOnErrorNameConstant)
	}
	return updated
}

func resolveReviewer(
	executionContext context.Context,
	provider string,
	configuration Configuration,
	executor CommandExecutor,
	repositoryManager *gitrepo.RepositoryManager,
	workspacePath string,
	environmentLookup githubauth.EnvironmentLookup,
) (branchsync.ReviewRequester, error) {
	if provider == ReviewProviderGitHubCLI {
		client, clientError := githubcli.NewClient(executor)
		if clientError != nil {
			return nil, clientError
		}
		return NewCLIReviewRequester(client, configuration.Review.Repository, workspacePath), nil
	}

	owner, repository, coordinatesError := repositoryCoordinates(executionContext, configuration, repositoryManager, workspacePath)
	if coordinatesError != nil {
		return nil, coordinatesError
	}
	token, tokenError := githubauth.ResolveToken(configuration.Review.Token, environmentLookup)
	if tokenError != nil {
		return nil, tokenError
	}
	apiProvider, apiError := githubapi.NewProvider(githubapi.Configuration{
		Token:      token,
		Owner:      owner,
		Repository: repository,
		BaseURL:    configuration.Review.APIBaseURL,
	})
	if apiError != nil {
		return nil, apiError
	}
	return NewAPIReviewRequester(apiProvider), nil
}

func repositoryCoordinates(executionContext context.Context, configuration Configuration, repositoryManager *gitrepo.RepositoryManager, workspacePath string) (string, string, error) {
	if configured := configuration.Review.Repository; len(configured) > 0 {
		owner, repository, found := strings.Cut(configured, repositorySeparatorConstant)
		if !found || len(owner) == 0 || len(repository) == 0 {
			return "", "", fmt.Errorf(invalidRepositoryTemplateConstant, configured)
		}
		return owner, repository, nil
	}

	remoteURL, remoteError := repositoryManager.GetRemoteURL(executionContext, workspacePath, configuration.Sync.RemoteName)
	if remoteError != nil {
		return "", "", fmt.Errorf(remoteLookupErrorTemplateConstant, configuration.Sync.RemoteName, remoteError)
	}
	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return "", "", fmt.Errorf(remoteLookupErrorTemplateConstant, configuration.Sync.RemoteName, parseError)
	}
	return parsedRemote.Owner, parsedRemote.Repository, nil
}

// PackagesCommandBuilder assembles the packages command.
type PackagesCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() Configuration
	Locator               PackageLocator
}

// Build constructs the packages command.
func (builder *PackagesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           packagesCommandUseConstant,
		Short:         packagesCommandShortDescriptionConstant,
		Long:          packagesCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().String(flagPathNameConstant, defaults.Sync.WorkspacePath, flagPathDescriptionConstant)
	command.Flags().String(flagManifestNameConstant, defaults.Sync.ManifestFileName, flagManifestDescriptionConstant)

	return command, nil
}

func (builder *PackagesCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = applySyncFlags(command.Flags(), configuration).Sanitize()
	logger := resolveLogger(builder.LoggerProvider)

	locator := builder.Locator
	if locator == nil {
		locator = packages.NewLocator(packages.LocatorOptions{
			ManifestFileName: configuration.Sync.ManifestFileName,
			Logger:           logger,
		})
	}

	located, locateError := locator.Locate(configuration.Sync.WorkspacePath)
	if locateError != nil {
		return fmt.Errorf(packagesExecutionErrorTemplateConstant, locateError)
	}

	encoder := yaml.NewEncoder(command.OutOrStdout())
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(packageListing{Packages: located.Packages}); encodeError != nil {
		return fmt.Errorf(packagesExecutionErrorTemplateConstant, encodeError)
	}
	return encoder.Close()
}

type packageListing struct {
	Packages []packages.PackageRecord `yaml:"packages"`
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
