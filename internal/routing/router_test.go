package routing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/packages"
	"github.com/temirov/debsync/internal/routing"
)

const (
	testPackageAIdentifierConstant  = "pkg_a"
	testPackageA2IdentifierConstant = "pkg_a2"
	testRootIdentifierConstant      = "foo_pkg"
	testPackageABranchConstant      = "debian/jazzy/noble/pkg_a"
	testPackageA2BranchConstant     = "debian/jazzy/noble/pkg_a2"
	testRootBranchConstant          = "debian/jazzy/noble/foo_pkg"
)

func siblingPackages() []packages.PackageRecord {
	return []packages.PackageRecord{
		{RootPath: "pkgA", Identifier: testPackageAIdentifierConstant},
		{RootPath: "pkgA2", Identifier: testPackageA2IdentifierConstant},
	}
}

func TestRouterRoute(testInstance *testing.T) {
	testCases := []struct {
		name             string
		changedFiles     []string
		packageRecords   []packages.PackageRecord
		expectedBranches []routing.AffectedBranch
		expectedUnrouted []string
	}{
		{
			name:           "prefix_sibling_not_matched",
			changedFiles:   []string{"pkgA2/x.cpp"},
			packageRecords: siblingPackages(),
			expectedBranches: []routing.AffectedBranch{
				{TargetBranch: testPackageA2BranchConstant, Identifier: testPackageA2IdentifierConstant, OwnedFiles: []string{"pkgA2/x.cpp"}},
			},
		},
		{
			name:           "multiple_packages_sorted_by_branch",
			changedFiles:   []string{"pkgA2/y.cpp", "README.md", "pkgA/src/x.cpp"},
			packageRecords: siblingPackages(),
			expectedBranches: []routing.AffectedBranch{
				{TargetBranch: testPackageABranchConstant, Identifier: testPackageAIdentifierConstant, OwnedFiles: []string{"pkgA/src/x.cpp"}},
				{TargetBranch: testPackageA2BranchConstant, Identifier: testPackageA2IdentifierConstant, OwnedFiles: []string{"pkgA2/y.cpp"}},
			},
			expectedUnrouted: []string{"README.md"},
		},
		{
			name:           "file_equal_to_root_path",
			changedFiles:   []string{"pkgA"},
			packageRecords: siblingPackages(),
			expectedBranches: []routing.AffectedBranch{
				{TargetBranch: testPackageABranchConstant, Identifier: testPackageAIdentifierConstant, OwnedFiles: []string{"pkgA"}},
			},
		},
		{
			name:           "root_package_owns_top_level_files_only",
			changedFiles:   []string{"file.txt", "src/main.cpp"},
			packageRecords: []packages.PackageRecord{{RootPath: packages.RootPackagePath, Identifier: testRootIdentifierConstant}},
			expectedBranches: []routing.AffectedBranch{
				{TargetBranch: testRootBranchConstant, Identifier: testRootIdentifierConstant, OwnedFiles: []string{"file.txt"}},
			},
			expectedUnrouted: []string{"src/main.cpp"},
		},
		{
			name:           "initial_commit_routes_nothing",
			changedFiles:   nil,
			packageRecords: siblingPackages(),
		},
		{
			name:             "no_packages_leaves_everything_unrouted",
			changedFiles:     []string{"pkgA/x.cpp"},
			expectedUnrouted: []string{"pkgA/x.cpp"},
		},
		{
			name:         "duplicate_identifier_merges_into_one_branch",
			changedFiles: []string{"one/a.txt", "two/b.txt", "one/a.txt"},
			packageRecords: []packages.PackageRecord{
				{RootPath: "one", Identifier: testPackageAIdentifierConstant},
				{RootPath: "two", Identifier: testPackageAIdentifierConstant},
			},
			expectedBranches: []routing.AffectedBranch{
				{TargetBranch: testPackageABranchConstant, Identifier: testPackageAIdentifierConstant, OwnedFiles: []string{"one/a.txt", "two/b.txt"}},
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			router := routing.NewRouter(routing.NewBranchNamer("", ""))
			result := router.Route(testCase.changedFiles, testCase.packageRecords)
			require.Equal(testInstance, testCase.expectedBranches, result.Branches)
			require.Equal(testInstance, testCase.expectedUnrouted, result.UnroutedFiles)
			require.Equal(testInstance, len(testCase.expectedBranches) == 0, result.IsEmpty())
		})
	}
}

func TestOwns(testInstance *testing.T) {
	testCases := []struct {
		name     string
		rootPath string
		filePath string
		expected bool
	}{
		{name: "nested_file", rootPath: "pkgA", filePath: "pkgA/src/x.cpp", expected: true},
		{name: "sibling_prefix", rootPath: "pkgA", filePath: "pkgA2/x.cpp", expected: false},
		{name: "exact_match", rootPath: "stack/pkg", filePath: "stack/pkg", expected: true},
		{name: "parent_directory", rootPath: "stack/pkg", filePath: "stack/other.txt", expected: false},
		{name: "root_top_level", rootPath: packages.RootPackagePath, filePath: "CMakeLists.txt", expected: true},
		{name: "root_subdirectory", rootPath: packages.RootPackagePath, filePath: "src/main.cpp", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, routing.Owns(testCase.rootPath, testCase.filePath))
		})
	}
}

func TestBranchNamer(testInstance *testing.T) {
	testCases := []struct {
		name       string
		series     string
		distro     string
		identifier string
		expected   string
	}{
		{name: "defaults", identifier: "foo_pkg", expected: "debian/jazzy/noble/foo_pkg"},
		{name: "custom_series_and_distro", series: "humble", distro: "jammy", identifier: "foo_pkg", expected: "debian/humble/jammy/foo_pkg"},
		{name: "blank_values_trimmed", series: "  ", distro: " \t", identifier: "bar", expected: "debian/jazzy/noble/bar"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			namer := routing.NewBranchNamer(testCase.series, testCase.distro)
			require.Equal(testInstance, testCase.expected, namer.TargetBranch(testCase.identifier))
		})
	}
}
