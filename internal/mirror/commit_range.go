package mirror

import "strings"

const (
	defaultHeadRevisionConstant = "HEAD"
	zeroHashCharacterConstant   = "0"
	fullHistorySuffixConstant   = " (full history)"
	initialPushSuffixConstant   = " (initial push)"
)

// CommitRangeKind selects which commits a run processes.
type CommitRangeKind int

const (
	// CommitRangeInitialPushOnly processes only the head commit.
	CommitRangeInitialPushOnly CommitRangeKind = iota
	// CommitRangeSinceCommit processes commits reachable from the head and not from the base.
	CommitRangeSinceCommit
	// CommitRangeFull processes the whole history reachable from the head.
	CommitRangeFull
)

// CommitRange identifies the commits of one push.
type CommitRange struct {
	Kind CommitRangeKind
	Base string
	Head string
}

// NewCommitRange derives the range from push event identifiers. A missing or all-zero before hash
// marks the first push of a branch. A blank after hash selects HEAD.
func NewCommitRange(before string, after string, fullHistory bool) CommitRange {
	head := strings.TrimSpace(after)
	if len(head) == 0 {
		head = defaultHeadRevisionConstant
	}
	if fullHistory {
		return CommitRange{Kind: CommitRangeFull, Head: head}
	}
	base := strings.TrimSpace(before)
	if isNullHash(base) {
		return CommitRange{Kind: CommitRangeInitialPushOnly, Head: head}
	}
	return CommitRange{Kind: CommitRangeSinceCommit, Base: base, Head: head}
}

// String renders the range the way git spells it.
func (commitRange CommitRange) String() string {
	switch commitRange.Kind {
	case CommitRangeSinceCommit:
		return commitRange.Base + ".." + commitRange.Head
	case CommitRangeFull:
		return commitRange.Head + fullHistorySuffixConstant
	default:
		return commitRange.Head + initialPushSuffixConstant
	}
}

func isNullHash(hash string) bool {
	return len(strings.Trim(hash, zeroHashCharacterConstant)) == 0
}
