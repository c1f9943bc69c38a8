package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	exitCodeSuffixTemplateConstant          = " (exit code %d%s)"
	executionFailureSuffixTemplateConstant  = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
	pathSeparatorArgumentConstant           = "--"
)

const (
	gitRevParseSubcommandNameConstant   = "rev-parse"
	gitWorkTreeFlagConstant             = "--is-inside-work-tree"
	gitRevListSubcommandNameConstant    = "rev-list"
	gitLogSubcommandNameConstant        = "log"
	gitDiffSubcommandNameConstant       = "diff"
	gitLsTreeSubcommandNameConstant     = "ls-tree"
	gitCatFileSubcommandNameConstant    = "cat-file"
	gitWorktreeSubcommandNameConstant   = "worktree"
	gitWorktreeAddActionConstant        = "add"
	gitWorktreeRemoveActionConstant     = "remove"
	gitWorktreePruneActionConstant      = "prune"
	gitFetchSubcommandNameConstant      = "fetch"
	gitAddSubcommandNameConstant        = "add"
	gitStatusSubcommandNameConstant     = "status"
	gitCommitSubcommandNameConstant     = "commit"
	gitPushSubcommandNameConstant       = "push"
	gitForceFlagConstant                = "--force"
	gitRemoteSubcommandNameConstant     = "remote"
	githubPullRequestSubcommandConstant = "pr"
	githubCreateSubcommandConstant      = "create"
	githubBaseFlagConstant              = "--base"
	githubHeadFlagConstant              = "--head"
)

// messageTemplates holds the four lifecycle templates of one command family. Each template
// receives a subject first; failure templates additionally receive a formatted suffix.
type messageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitWorkTreeTemplates = messageTemplates{
		start:            "Analyzing repository at %s",
		success:          "%s is a Git repository",
		failure:          "Could not confirm %s is a Git repository%s",
		executionFailure: "Could not analyze %s%s",
	}
	gitRevisionTemplates = messageTemplates{
		start:            "Resolving %s",
		success:          "Resolved %s",
		failure:          "Failed to resolve %s%s",
		executionFailure: "Unable to resolve %s%s",
	}
	gitRevListTemplates = messageTemplates{
		start:            "Listing commits in %s",
		success:          "Listed commits in %s",
		failure:          "Failed to list commits in %s%s",
		executionFailure: "Unable to list commits in %s%s",
	}
	gitLogTemplates = messageTemplates{
		start:            "Reading commit metadata for %s",
		success:          "Read commit metadata for %s",
		failure:          "Failed to read commit metadata for %s%s",
		executionFailure: "Unable to read commit metadata for %s%s",
	}
	gitDiffTemplates = messageTemplates{
		start:            "Collecting changed files for %s",
		success:          "Collected changed files for %s",
		failure:          "Failed to collect changed files for %s%s",
		executionFailure: "Unable to collect changed files for %s%s",
	}
	gitLsTreeTemplates = messageTemplates{
		start:            "Looking up %s",
		success:          "Looked up %s",
		failure:          "Failed to look up %s%s",
		executionFailure: "Unable to look up %s%s",
	}
	gitCatFileTemplates = messageTemplates{
		start:            "Reading object %s",
		success:          "Read object %s",
		failure:          "Failed to read object %s%s",
		executionFailure: "Unable to read object %s%s",
	}
	gitWorktreeAddTemplates = messageTemplates{
		start:            "Creating isolated checkout %s",
		success:          "Created isolated checkout %s",
		failure:          "Failed to create isolated checkout %s%s",
		executionFailure: "Unable to create isolated checkout %s%s",
	}
	gitWorktreeRemoveTemplates = messageTemplates{
		start:            "Removing isolated checkout %s",
		success:          "Removed isolated checkout %s",
		failure:          "Failed to remove isolated checkout %s%s",
		executionFailure: "Unable to remove isolated checkout %s%s",
	}
	gitWorktreePruneTemplates = messageTemplates{
		start:            "Pruning isolated checkouts of %s",
		success:          "Pruned isolated checkouts of %s",
		failure:          "Failed to prune isolated checkouts of %s%s",
		executionFailure: "Unable to prune isolated checkouts of %s%s",
	}
	gitFetchTemplates = messageTemplates{
		start:            "Fetching %s",
		success:          "Fetched %s",
		failure:          "Failed to fetch %s%s",
		executionFailure: "Unable to fetch %s%s",
	}
	gitAddTemplates = messageTemplates{
		start:            "Staging changes in %s",
		success:          "Staged changes in %s",
		failure:          "Failed to stage changes in %s%s",
		executionFailure: "Unable to stage changes in %s%s",
	}
	gitStatusTemplates = messageTemplates{
		start:            "Reviewing working tree status in %s",
		success:          "Collected working tree status for %s",
		failure:          "Failed to review working tree status in %s%s",
		executionFailure: "Unable to review working tree status in %s%s",
	}
	gitCommitTemplates = messageTemplates{
		start:            "Creating commit in %s",
		success:          "Created commit in %s",
		failure:          "Failed to create commit in %s%s",
		executionFailure: "Unable to create commit in %s%s",
	}
	gitPushTemplates = messageTemplates{
		start:            "Pushing %s",
		success:          "Pushed %s",
		failure:          "Failed to push %s%s",
		executionFailure: "Unable to push %s%s",
	}
	gitRemoteTemplates = messageTemplates{
		start:            "Checking remote %s",
		success:          "Checked remote %s",
		failure:          "Failed to check remote %s%s",
		executionFailure: "Unable to check remote %s%s",
	}
	githubPullRequestCreateTemplates = messageTemplates{
		start:            "Opening pull request %s",
		success:          "Opened pull request %s",
		failure:          "Failed to open pull request %s%s",
		executionFailure: "Unable to open pull request %s%s",
	}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	templates, subject, described := formatter.describe(command)
	if !described {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		suffix := fmt.Sprintf(exitCodeSuffixTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, subject, suffix)
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, fmt.Sprintf(executionFailureSuffixTemplateConstant, formatter.describeFailure(failure)))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describe(command ShellCommand) (messageTemplates, string, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return messageTemplates{}, emptyStringConstant, false
	}

	switch command.Name {
	case CommandGit:
		return formatter.describeGitCommand(command)
	case CommandGitHub:
		if len(arguments) >= 2 && arguments[0] == githubPullRequestSubcommandConstant && arguments[1] == githubCreateSubcommandConstant {
			head := formatter.ensureValue(findFlagValue(arguments, githubHeadFlagConstant))
			base := formatter.ensureValue(findFlagValue(arguments, githubBaseFlagConstant))
			return githubPullRequestCreateTemplates, fmt.Sprintf("%s -> %s", head, base), true
		}
	}
	return messageTemplates{}, emptyStringConstant, false
}

func (formatter CommandMessageFormatter) describeGitCommand(command ShellCommand) (messageTemplates, string, bool) {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	operands := nonFlagArguments(arguments[1:])

	switch strings.TrimSpace(arguments[0]) {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitWorkTreeFlagConstant) {
			return gitWorkTreeTemplates, workingDirectory, true
		}
		return gitRevisionTemplates, formatter.ensureValue(lastElement(operands)), true
	case gitRevListSubcommandNameConstant:
		return gitRevListTemplates, formatter.ensureValue(lastElement(operands)), true
	case gitLogSubcommandNameConstant:
		return gitLogTemplates, formatter.ensureValue(lastElement(operands)), true
	case gitDiffSubcommandNameConstant:
		return gitDiffTemplates, formatter.ensureValue(lastElement(operands)), true
	case gitLsTreeSubcommandNameConstant:
		return gitLsTreeTemplates, formatter.ensureValue(strings.Join(operands, ":")), true
	case gitCatFileSubcommandNameConstant:
		return gitCatFileTemplates, formatter.ensureValue(lastElement(operands)), true
	case gitWorktreeSubcommandNameConstant:
		if len(operands) == 0 {
			return messageTemplates{}, emptyStringConstant, false
		}
		switch operands[0] {
		case gitWorktreeAddActionConstant:
			return gitWorktreeAddTemplates, formatter.ensureValue(strings.Join(operands[1:], " at ")), true
		case gitWorktreeRemoveActionConstant:
			return gitWorktreeRemoveTemplates, formatter.ensureValue(lastElement(operands[1:])), true
		case gitWorktreePruneActionConstant:
			return gitWorktreePruneTemplates, workingDirectory, true
		}
	case gitFetchSubcommandNameConstant:
		return gitFetchTemplates, formatter.describeRemoteAndReferences(operands), true
	case gitAddSubcommandNameConstant:
		return gitAddTemplates, workingDirectory, true
	case gitStatusSubcommandNameConstant:
		return gitStatusTemplates, workingDirectory, true
	case gitCommitSubcommandNameConstant:
		return gitCommitTemplates, workingDirectory, true
	case gitPushSubcommandNameConstant:
		subject := formatter.describeRemoteAndReferences(operands)
		if containsArgument(arguments, gitForceFlagConstant) {
			subject += " (forced)"
		}
		return gitPushTemplates, subject, true
	case gitRemoteSubcommandNameConstant:
		return gitRemoteTemplates, formatter.ensureValue(lastElement(operands)), true
	}
	return messageTemplates{}, emptyStringConstant, false
}

func (formatter CommandMessageFormatter) describeRemoteAndReferences(operands []string) string {
	if len(operands) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	if len(operands) == 1 {
		return fmt.Sprintf("from %s", operands[0])
	}
	return fmt.Sprintf("%s on %s", strings.Join(operands[1:], ", "), operands[0])
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

// nonFlagArguments drops flags and their inline values while keeping positional operands in order.
func nonFlagArguments(arguments []string) []string {
	operands := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || trimmed == pathSeparatorArgumentConstant {
			continue
		}
		if strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		operands = append(operands, trimmed)
	}
	return operands
}

func lastElement(values []string) string {
	if len(values) == 0 {
		return emptyStringConstant
	}
	return values[len(values)-1]
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
