package routing

import (
	"fmt"
	"strings"
)

const (
	// DefaultSeries is the distribution series used in branch names.
	DefaultSeries = "jazzy"
	// DefaultDistro is the distribution codename used in branch names.
	DefaultDistro = "noble"

	targetBranchTemplateConstant = "debian/%s/%s/%s"
)

// BranchNamer derives release branch names from package identifiers.
type BranchNamer struct {
	Series string
	Distro string
}

// NewBranchNamer returns a namer, substituting defaults for blank values.
func NewBranchNamer(series string, distro string) BranchNamer {
	namer := BranchNamer{Series: strings.TrimSpace(series), Distro: strings.TrimSpace(distro)}
	if len(namer.Series) == 0 {
		namer.Series = DefaultSeries
	}
	if len(namer.Distro) == 0 {
		namer.Distro = DefaultDistro
	}
	return namer
}

// TargetBranch returns debian/<series>/<distro>/<identifier>.
func (namer BranchNamer) TargetBranch(identifier string) string {
	return fmt.Sprintf(targetBranchTemplateConstant, namer.Series, namer.Distro, identifier)
}
