package routing

import (
	"sort"
	"strings"

	"github.com/temirov/debsync/internal/packages"
)

const pathSeparatorConstant = "/"

// AffectedBranch lists the changed files one release branch must receive.
type AffectedBranch struct {
	TargetBranch string
	Identifier   string
	OwnedFiles   []string
}

// Routing is the outcome of routing one commit. Branches are ordered by target branch name.
type Routing struct {
	Branches      []AffectedBranch
	UnroutedFiles []string
}

// IsEmpty reports whether no branch is affected.
func (routing Routing) IsEmpty() bool {
	return len(routing.Branches) == 0
}

// Router maps changed files onto package release branches.
type Router struct {
	namer BranchNamer
}

// NewRouter constructs a Router.
func NewRouter(namer BranchNamer) *Router {
	return &Router{namer: namer}
}

// Route assigns every changed file to each package whose root contains it. A file may be owned by several
// branches; files no package owns are reported in UnroutedFiles. Packages sharing an identifier share a branch.
func (router *Router) Route(changedFiles []string, packageRecords []packages.PackageRecord) Routing {
	if len(changedFiles) == 0 {
		return Routing{}
	}

	ownedFilesByBranch := map[string][]string{}
	identifierByBranch := map[string]string{}
	seenByBranch := map[string]map[string]struct{}{}
	var unroutedFiles []string

	for _, changedFile := range changedFiles {
		routed := false
		for _, record := range packageRecords {
			if !Owns(record.RootPath, changedFile) {
				continue
			}
			routed = true
			targetBranch := router.namer.TargetBranch(record.Identifier)
			if _, exists := seenByBranch[targetBranch]; !exists {
				seenByBranch[targetBranch] = map[string]struct{}{}
				identifierByBranch[targetBranch] = record.Identifier
			}
			if _, duplicate := seenByBranch[targetBranch][changedFile]; duplicate {
				continue
			}
			seenByBranch[targetBranch][changedFile] = struct{}{}
			ownedFilesByBranch[targetBranch] = append(ownedFilesByBranch[targetBranch], changedFile)
		}
		if !routed {
			unroutedFiles = append(unroutedFiles, changedFile)
		}
	}

	targetBranches := make([]string, 0, len(ownedFilesByBranch))
	for targetBranch := range ownedFilesByBranch {
		targetBranches = append(targetBranches, targetBranch)
	}
	sort.Strings(targetBranches)

	routing := Routing{UnroutedFiles: unroutedFiles}
	for _, targetBranch := range targetBranches {
		routing.Branches = append(routing.Branches, AffectedBranch{
			TargetBranch: targetBranch,
			Identifier:   identifierByBranch[targetBranch],
			OwnedFiles:   ownedFilesByBranch[targetBranch],
		})
	}
	return routing
}

// Owns reports whether a package rooted at rootPath contains filePath. The workspace-root package owns only
// top-level files; any other root owns itself and everything below "<rootPath>/".
func Owns(rootPath string, filePath string) bool {
	if rootPath == packages.RootPackagePath {
		return !strings.Contains(filePath, pathSeparatorConstant)
	}
	return filePath == rootPath || strings.HasPrefix(filePath, rootPath+pathSeparatorConstant)
}
