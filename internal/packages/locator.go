package packages

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// RootPackagePath is the root path of a workspace that is itself a package.
	RootPackagePath = "."

	gitMetadataDirectoryNameConstant      = ".git"
	workspaceRequiredMessageConstant      = "workspace root required"
	workspaceAccessTemplateConstant       = "workspace %s is not accessible: %w"
	workspaceNotDirectoryTemplateConstant = "workspace %s is not a directory"
	manifestSkippedLogMessageConstant     = "Skipping directory with unreadable manifest"
	rootManifestFailedLogMessageConstant  = "Root manifest could not be parsed; no packages registered"
	unreadableDirectoryLogMessageConstant = "Skipping unreadable directory"
	packageRegisteredLogMessageConstant   = "Registered package"
	logFieldManifestPathConstant          = "manifest"
	logFieldRootPathConstant              = "root_path"
	logFieldIdentifierConstant            = "identifier"
	logFieldDirectoryConstant             = "directory"
)

// ErrWorkspaceRootRequired indicates Locate was called without a workspace.
var ErrWorkspaceRootRequired = errors.New(workspaceRequiredMessageConstant)

// PackageRecord ties a workspace-relative root path to a package identifier.
// RootPath uses forward slashes and is "." for a workspace that is itself a package.
type PackageRecord struct {
	RootPath   string `yaml:"root_path"`
	Identifier string `yaml:"identifier"`
}

// LocateResult holds the discovered packages ordered by root path plus the manifests that were skipped.
type LocateResult struct {
	Packages      []PackageRecord
	ParseFailures []ManifestParseError
}

// Mapping returns the root path to identifier view of the discovered packages.
func (result LocateResult) Mapping() map[string]string {
	mapping := make(map[string]string, len(result.Packages))
	for _, record := range result.Packages {
		mapping[record.RootPath] = record.Identifier
	}
	return mapping
}

// LocatorOptions configures a Locator. Zero values select package.xml and the ROS parser.
type LocatorOptions struct {
	ManifestFileName string
	Parser           ManifestParser
	Logger           *zap.Logger
}

// Locator walks a workspace looking for manifests.
type Locator struct {
	manifestFileName string
	parser           ManifestParser
	logger           *zap.Logger
}

// NewLocator constructs a Locator.
func NewLocator(options LocatorOptions) *Locator {
	manifestFileName := strings.TrimSpace(options.ManifestFileName)
	if len(manifestFileName) == 0 {
		manifestFileName = DefaultManifestFileName
	}
	parser := options.Parser
	if parser == nil {
		parser = ROSManifestParser{}
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{manifestFileName: manifestFileName, parser: parser, logger: logger}
}

// Locate discovers packages under workspaceRoot. Missing manifests yield an empty result, not an error;
// only an inaccessible workspace is reported as an error.
func (locator *Locator) Locate(workspaceRoot string) (LocateResult, error) {
	trimmedRoot := strings.TrimSpace(workspaceRoot)
	if len(trimmedRoot) == 0 {
		return LocateResult{}, ErrWorkspaceRootRequired
	}
	rootInfo, statError := os.Stat(trimmedRoot)
	if statError != nil {
		return LocateResult{}, fmt.Errorf(workspaceAccessTemplateConstant, trimmedRoot, statError)
	}
	if !rootInfo.IsDir() {
		return LocateResult{}, fmt.Errorf(workspaceNotDirectoryTemplateConstant, trimmedRoot)
	}

	result := LocateResult{}

	rootManifestPresent, rootIdentifier, rootParseError := locator.inspectDirectory(trimmedRoot)
	if rootManifestPresent {
		if rootParseError != nil {
			result.ParseFailures = append(result.ParseFailures, *rootParseError)
			locator.logger.Warn(rootManifestFailedLogMessageConstant, zap.String(logFieldManifestPathConstant, rootParseError.ManifestPath), zap.Error(rootParseError.Cause))
			return result, nil
		}
		result.Packages = append(result.Packages, PackageRecord{RootPath: RootPackagePath, Identifier: rootIdentifier})
		locator.logger.Debug(packageRegisteredLogMessageConstant, zap.String(logFieldRootPathConstant, RootPackagePath), zap.String(logFieldIdentifierConstant, rootIdentifier))
		return result, nil
	}

	walkError := filepath.WalkDir(trimmedRoot, func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if currentPath == trimmedRoot {
				return walkError
			}
			locator.logger.Warn(unreadableDirectoryLogMessageConstant, zap.String(logFieldDirectoryConstant, currentPath), zap.Error(walkError))
			if directoryEntry != nil && directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !directoryEntry.IsDir() || currentPath == trimmedRoot {
			return nil
		}
		if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
			return fs.SkipDir
		}

		manifestPresent, identifier, parseError := locator.inspectDirectory(currentPath)
		if !manifestPresent {
			return nil
		}
		if parseError != nil {
			result.ParseFailures = append(result.ParseFailures, *parseError)
			locator.logger.Warn(manifestSkippedLogMessageConstant, zap.String(logFieldManifestPathConstant, parseError.ManifestPath), zap.Error(parseError.Cause))
			return nil
		}

		relativePath, relativeError := filepath.Rel(trimmedRoot, currentPath)
		if relativeError != nil {
			return relativeError
		}
		rootPath := filepath.ToSlash(relativePath)
		result.Packages = append(result.Packages, PackageRecord{RootPath: rootPath, Identifier: identifier})
		locator.logger.Debug(packageRegisteredLogMessageConstant, zap.String(logFieldRootPathConstant, rootPath), zap.String(logFieldIdentifierConstant, identifier))
		return fs.SkipDir
	})
	if walkError != nil {
		return LocateResult{}, fmt.Errorf(workspaceAccessTemplateConstant, trimmedRoot, walkError)
	}

	sort.SliceStable(result.Packages, func(leftIndex int, rightIndex int) bool {
		return result.Packages[leftIndex].RootPath < result.Packages[rightIndex].RootPath
	})
	return result, nil
}

// inspectDirectory reports whether directoryPath holds a manifest and, if so, its parsed identifier.
func (locator *Locator) inspectDirectory(directoryPath string) (bool, string, *ManifestParseError) {
	manifestPath := filepath.Join(directoryPath, locator.manifestFileName)
	manifestInfo, statError := os.Stat(manifestPath)
	if statError != nil || manifestInfo.IsDir() {
		return false, "", nil
	}

	manifestContent, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return true, "", &ManifestParseError{ManifestPath: manifestPath, Cause: readError}
	}
	identifier, parseError := locator.parser.ParsePackageName(manifestContent)
	if parseError != nil {
		return true, "", &ManifestParseError{ManifestPath: manifestPath, Cause: parseError}
	}
	return true, identifier, nil
}
