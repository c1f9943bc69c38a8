package packages_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/debsync/internal/packages"
)

const (
	testManifestTemplateConstant  = "<?xml version=\"1.0\"?>\n<package format=\"3\">\n  <name>%s</name>\n  <version>1.0.0</version>\n</package>\n"
	testMalformedManifestConstant = "<package><name>broken</name>"
	testNamelessManifestConstant  = "<package><version>1.0.0</version></package>"
)

func writeWorkspaceFile(testInstance *testing.T, workspaceRoot string, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(workspaceRoot, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func manifestFor(identifier string) string {
	return fmt.Sprintf(testManifestTemplateConstant, identifier)
}

func TestLocatorLocate(testInstance *testing.T) {
	testCases := []struct {
		name             string
		files            map[string]string
		expectedPackages []packages.PackageRecord
		expectedFailures int
	}{
		{
			name:             "single_package_workspace_short_circuits",
			files:            map[string]string{"package.xml": manifestFor("foo_pkg"), "sub/package.xml": manifestFor("nested_pkg"), "file.txt": "x"},
			expectedPackages: []packages.PackageRecord{{RootPath: ".", Identifier: "foo_pkg"}},
		},
		{
			name: "sibling_packages",
			files: map[string]string{
				"pkgA/package.xml":  manifestFor("pkg_a"),
				"pkgA2/package.xml": manifestFor("pkg_a2"),
				"pkgB/src/main.cpp": "int main() {}",
				"pkgB/package.xml":  manifestFor("pkg_b"),
			},
			expectedPackages: []packages.PackageRecord{
				{RootPath: "pkgA", Identifier: "pkg_a"},
				{RootPath: "pkgA2", Identifier: "pkg_a2"},
				{RootPath: "pkgB", Identifier: "pkg_b"},
			},
		},
		{
			name: "descent_stops_at_package_root",
			files: map[string]string{
				"stack/pkg/package.xml":        manifestFor("outer"),
				"stack/pkg/vendor/package.xml": manifestFor("inner"),
			},
			expectedPackages: []packages.PackageRecord{{RootPath: "stack/pkg", Identifier: "outer"}},
		},
		{
			name: "malformed_manifest_skipped_and_descended",
			files: map[string]string{
				"broken/package.xml":       testMalformedManifestConstant,
				"broken/child/package.xml": manifestFor("child_pkg"),
				"nameless/package.xml":     testNamelessManifestConstant,
				"good/package.xml":         manifestFor("good_pkg"),
			},
			expectedPackages: []packages.PackageRecord{
				{RootPath: "broken/child", Identifier: "child_pkg"},
				{RootPath: "good", Identifier: "good_pkg"},
			},
			expectedFailures: 2,
		},
		{
			name:             "no_manifests",
			files:            map[string]string{"README.md": "docs", "src/main.go": "package main"},
			expectedPackages: nil,
		},
		{
			name:             "root_manifest_parse_failure_yields_empty",
			files:            map[string]string{"package.xml": testMalformedManifestConstant, "pkgA/package.xml": manifestFor("pkg_a")},
			expectedPackages: nil,
			expectedFailures: 1,
		},
		{
			name:             "git_metadata_ignored",
			files:            map[string]string{".git/modules/pkg/package.xml": manifestFor("ignored"), "pkg/package.xml": manifestFor("pkg")},
			expectedPackages: []packages.PackageRecord{{RootPath: "pkg", Identifier: "pkg"}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			workspaceRoot := testInstance.TempDir()
			for relativePath, content := range testCase.files {
				writeWorkspaceFile(testInstance, workspaceRoot, relativePath, content)
			}

			locator := packages.NewLocator(packages.LocatorOptions{})
			result, locateError := locator.Locate(workspaceRoot)
			require.NoError(testInstance, locateError)
			require.Equal(testInstance, testCase.expectedPackages, result.Packages)
			require.Len(testInstance, result.ParseFailures, testCase.expectedFailures)
		})
	}
}

func TestLocatorLogsSkippedManifests(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	writeWorkspaceFile(testInstance, workspaceRoot, "broken/package.xml", testMalformedManifestConstant)

	observerCore, observerLogs := observer.New(zapcore.WarnLevel)
	locator := packages.NewLocator(packages.LocatorOptions{Logger: zap.New(observerCore)})
	result, locateError := locator.Locate(workspaceRoot)
	require.NoError(testInstance, locateError)
	require.Empty(testInstance, result.Packages)

	require.Equal(testInstance, 1, observerLogs.Len())
	var parseError packages.ManifestParseError
	require.ErrorAs(testInstance, result.ParseFailures[0], &parseError)
	require.Equal(testInstance, filepath.Join(workspaceRoot, "broken", "package.xml"), parseError.ManifestPath)
}

type fixedNameParser struct {
	identifier string
	err        error
}

func (parser fixedNameParser) ParsePackageName([]byte) (string, error) {
	return parser.identifier, parser.err
}

func TestLocatorCustomManifest(testInstance *testing.T) {
	workspaceRoot := testInstance.TempDir()
	writeWorkspaceFile(testInstance, workspaceRoot, "tools/pkg.manifest", "anything")
	writeWorkspaceFile(testInstance, workspaceRoot, "other/package.xml", manifestFor("ignored"))

	locator := packages.NewLocator(packages.LocatorOptions{ManifestFileName: "pkg.manifest", Parser: fixedNameParser{identifier: "tools_pkg"}})
	result, locateError := locator.Locate(workspaceRoot)
	require.NoError(testInstance, locateError)
	require.Equal(testInstance, map[string]string{"tools": "tools_pkg"}, result.Mapping())
}

func TestLocatorRejectsUnusableWorkspace(testInstance *testing.T) {
	locator := packages.NewLocator(packages.LocatorOptions{})

	_, emptyError := locator.Locate(" ")
	require.ErrorIs(testInstance, emptyError, packages.ErrWorkspaceRootRequired)

	_, missingError := locator.Locate(filepath.Join(testInstance.TempDir(), "missing"))
	require.Error(testInstance, missingError)
	require.True(testInstance, errors.Is(missingError, os.ErrNotExist))
}

func TestROSManifestParser(testInstance *testing.T) {
	testCases := []struct {
		name          string
		content       string
		expectedName  string
		expectedError error
		expectError   bool
	}{
		{name: "valid", content: manifestFor("  demo_nodes  "), expectedName: "demo_nodes"},
		{name: "format_two_root", content: "<package format=\"2\"><name>legacy</name></package>", expectedName: "legacy"},
		{name: "missing_name", content: testNamelessManifestConstant, expectedError: packages.ErrEmptyPackageName},
		{name: "malformed", content: testMalformedManifestConstant, expectError: true},
		{name: "not_xml", content: "name: foo", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			packageName, parseError := packages.ROSManifestParser{}.ParsePackageName([]byte(testCase.content))
			switch {
			case testCase.expectedError != nil:
				require.ErrorIs(testInstance, parseError, testCase.expectedError)
			case testCase.expectError:
				require.Error(testInstance, parseError)
			default:
				require.NoError(testInstance, parseError)
				require.Equal(testInstance, testCase.expectedName, packageName)
			}
		})
	}
}
